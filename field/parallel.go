package field

import (
	"errors"
	"runtime"
	"sync"
)

var errStepperClosed = errors.New("stepper closed")

// span is a half-open range of point indices owned by one worker.
type span struct{ start, end int }

// splitSpans divides n points into at most workers contiguous spans of
// near-equal size. Trailing spans may be empty when n < workers.
func splitSpans(n, workers int) []span {
	spans := make([]span, workers)
	per, extra := n/workers, n%workers
	start := 0
	for i := range spans {
		size := per
		if i < extra {
			size++
		}
		spans[i] = span{start, start + size}
		start += size
	}
	return spans
}

// ParallelStepper splits each frame across a fixed pool of worker
// goroutines started by NewParallelStepper. Step blocks until every worker
// has finished its span; Close stops the pool.
type ParallelStepper struct {
	Physics Physics
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	gen     int
	pending int
	closed  bool
	f       *Field
	in      StepInput
	n       int
	spans   []span
	wg      sync.WaitGroup
}

// NewParallelStepper starts workers goroutines, or one per CPU when workers
// is below 1.
func NewParallelStepper(p Physics, workers int) *ParallelStepper {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	s := &ParallelStepper{Physics: p, workers: workers}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.workerLoop(i)
	}
	return s
}

// Workers returns the pool size.
func (s *ParallelStepper) Workers() int { return s.workers }

func (s *ParallelStepper) Step(f *Field, in StepInput) error {
	if f.DispX == nil {
		return errReleased
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errStepperClosed
	}
	if s.spans == nil || s.n != f.Len() {
		s.n = f.Len()
		s.spans = splitSpans(s.n, s.workers)
	}
	s.f, s.in = f, in
	s.pending = s.workers
	s.gen++
	s.cond.Broadcast()
	for s.pending > 0 {
		s.cond.Wait()
	}
	s.f = nil
	s.mu.Unlock()
	f.MarkDirty()
	return nil
}

func (s *ParallelStepper) workerLoop(index int) {
	defer s.wg.Done()
	last := 0
	s.mu.Lock()
	for {
		for s.gen == last && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		last = s.gen
		f, in, sp := s.f, s.in, s.spans[index]
		s.mu.Unlock()

		if sp.end > sp.start {
			stepSpan(s.Physics, f, in, sp.start, sp.end)
		}

		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			s.cond.Broadcast()
		}
	}
}

// Close stops the workers and waits for them to exit. It is idempotent.
func (s *ParallelStepper) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}
