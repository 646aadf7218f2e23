package keyed

import (
	"sync"
	"time"
)

// Sweeper periodically calls a sweep function until stopped.
type Sweeper struct {
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// StartSweeper runs sweep every interval on its own goroutine. A non-positive
// interval returns a stopped Sweeper that never runs.
func StartSweeper(interval time.Duration, now func() time.Time, sweep func(time.Time) int) *Sweeper {
	s := &Sweeper{done: make(chan struct{})}
	if interval <= 0 || sweep == nil {
		return s
	}
	if now == nil {
		now = time.Now
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(now())
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Stop halts the sweeper and waits for the goroutine to exit.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
