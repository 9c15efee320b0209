// Package explorer holds the mutable state around the convolution core: the two
// loaded images, the current kernel bank, the per-kernel results, the selected
// kernel and a human-readable status line for the display layer.
package explorer

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/nvr-ai/go-convolve/preview"
	"github.com/nvr-ai/go-convolve/profiler"
	"github.com/pkg/errors"
)

// InitialStatus is the status line of a fresh or reset session.
const InitialStatus = "Load two images in order: first the target image, then the kernels sheet."

// Result is the outcome of one kernel, index-aligned with the kernel bank.
type Result struct {
	// Index is the kernel index in the bank.
	Index int
	// Score is the mean absolute response.
	Score float32
	// Preview is the bounded 8-bit rendering of the response map.
	Preview preview.Preview
}

// Session is the explorer state. All methods are safe for concurrent use; a
// rebuild (split or run) holds the session lock for its full duration so at most
// one is in flight.
type Session struct {
	mu sync.Mutex

	cfg   config.Config
	shape kernels.Shape

	target *images.GrayscaleImage
	sheet  *images.GrayscaleImage

	bank     *kernels.Bank
	results  []Result
	runID    string
	selected int
	status   string

	logger   *log.Logger
	profiler *profiler.Profiler
	pool     *kernels.Pool
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger routes session log lines to logger. A nil logger silences them.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		s.logger = logger
	}
}

// WithProfiler records split, convolve and preview timings into p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(s *Session) {
		s.profiler = p
	}
}

// New creates an empty session. cfg should already be validated.
func New(cfg config.Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		shape:  cfg.KernelShape(),
		status: InitialStatus,
		logger: log.Default(),
		pool:   &kernels.Pool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fills the first empty slot, target first and then sheet.
func (s *Session) Load(img *images.GrayscaleImage) (Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.target == nil:
		return SlotTarget, s.loadLocked(SlotTarget, img)
	case s.sheet == nil:
		return SlotSheet, s.loadLocked(SlotSheet, img)
	default:
		s.status = "Both image slots are already filled. Use Reset to load different files."
		return "", ErrSlotsFull
	}
}

// LoadTarget replaces the target image.
func (s *Session) LoadTarget(img *images.GrayscaleImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(SlotTarget, img)
}

// LoadSheet replaces the kernel sheet image.
func (s *Session) LoadSheet(img *images.GrayscaleImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(SlotSheet, img)
}

func (s *Session) loadLocked(slot Slot, img *images.GrayscaleImage) error {
	if img == nil {
		s.status = fmt.Sprintf("No %s image to load.", slot)
		return &MissingImageError{Slot: slot}
	}

	if slot == SlotTarget {
		if s.cfg.FitTarget > 0 {
			img = images.FitWithin(img, s.cfg.FitTarget)
		}
		s.target = img
	} else {
		s.sheet = img
	}

	// Any new image invalidates the kernels cut so far and every result.
	s.bank = nil
	s.clearResultsLocked()
	s.status = "Image loaded. Choose kernel shape and press Split kernels."
	s.logger.Printf("📋 Loaded %s image %q (%dx%d)", slot, img.Name, img.Width, img.Height)
	return nil
}

// SetShape selects the kernel shape used by the next split. Changing it discards
// the results. The current bank is kept until the next split replaces it; it
// carries its own shape, so running it stays consistent.
func (s *Session) SetShape(shape kernels.Shape) error {
	if !shape.Valid() {
		return errors.Wrapf(kernels.ErrInvalidShape, "%dx%d", shape.Width, shape.Height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if shape == s.shape {
		return nil
	}
	s.shape = shape
	s.clearResultsLocked()
	return nil
}

// Shape returns the selected kernel shape.
func (s *Session) Shape() kernels.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape
}

// SplitKernels cuts the sheet into a new kernel bank with the selected shape.
//
// On failure the configured split policy decides whether the previous bank and
// results survive: SplitPolicyClearOnSuccess keeps them, SplitPolicyClearOnAttempt
// has already dropped them.
func (s *Session) SplitKernels() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheet == nil {
		s.status = "Load the kernels sheet first."
		return &MissingImageError{Slot: SlotSheet}
	}

	if s.cfg.SplitPolicy == config.SplitPolicyClearOnAttempt {
		s.bank = nil
		s.clearResultsLocked()
	}

	stop := s.profiler.StartOperation("split")
	bank, err := kernels.Split(s.sheet, s.shape)
	stop()
	if err != nil {
		s.status = fmt.Sprintf("%s.", capitalize(err.Error()))
		s.logger.Printf("⚠️  Split failed: %v", err)
		return err
	}

	s.bank = bank
	s.clearResultsLocked()
	s.status = fmt.Sprintf("Split into %d kernels (%d rows x %d cols).", bank.Len(), bank.Rows, bank.Cols)
	s.logger.Printf("✅ %s", s.status)
	return nil
}

// RunAll convolves every kernel against the target and rebuilds the result list.
// The previous results are kept if the run fails or ctx is cancelled.
func (s *Session) RunAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.target == nil {
		s.status = "Load the target image first."
		return &MissingImageError{Slot: SlotTarget}
	}
	if s.bank.Len() == 0 {
		s.status = "Split kernels first."
		return ErrEmptyKernelBank
	}

	opt := s.cfg.ConvolveOptions()
	opt.Pool = s.pool

	results := make([]Result, s.bank.Len())
	stopRun := s.profiler.StartOperation("run_all")
	err := kernels.ConvolveBank(ctx, s.target, s.bank, opt, func(i int, r kernels.Response) error {
		stop := s.profiler.StartOperation("preview")
		p := preview.Build(r.Values, r.Width, r.Height, s.cfg.MaxDim)
		stop()

		// Only the preview and score outlive the run.
		s.pool.Put(r.Values)

		s.profiler.RecordMetric("score", float64(r.Score))
		results[i] = Result{Index: i, Score: r.Score, Preview: p}
		return nil
	})
	stopRun()
	if err != nil {
		s.status = fmt.Sprintf("Convolution failed: %v", err)
		return errors.Wrap(err, "convolution run failed")
	}

	s.results = results
	s.runID = uuid.NewString()
	s.selected = 0
	s.status = fmt.Sprintf("Computed %d convolution maps.", len(results))
	s.logger.Printf("✅ %s (run %s)", s.status, s.runID)
	return nil
}

// Select sets the selected kernel index, clamped to the available results, and
// returns the index actually selected.
func (s *Session) Select(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = clampIndex(i, len(s.results))
	return s.selected
}

// Selected returns the currently selected result, if any.
func (s *Session) Selected() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) == 0 {
		return Result{}, false
	}
	return s.results[clampIndex(s.selected, len(s.results))], true
}

// Results returns the results of the last successful run, in bank order.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Bank returns the current kernel bank, or nil before a successful split.
func (s *Session) Bank() *kernels.Bank {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank
}

// Target returns the loaded target image, or nil.
func (s *Session) Target() *images.GrayscaleImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Sheet returns the loaded kernel sheet image, or nil.
func (s *Session) Sheet() *images.GrayscaleImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet
}

// RunID identifies the last successful run. It is empty when there are no results.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Status returns the human-readable status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reset drops both images, the bank and the results, and restores the
// configured kernel shape.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = nil
	s.sheet = nil
	s.bank = nil
	s.shape = s.cfg.KernelShape()
	s.clearResultsLocked()
	s.status = InitialStatus
}

func (s *Session) clearResultsLocked() {
	s.results = nil
	s.runID = ""
	s.selected = 0
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func capitalize(msg string) string {
	if msg == "" || msg[0] < 'a' || msg[0] > 'z' {
		return msg
	}
	return string(msg[0]-'a'+'A') + msg[1:]
}
