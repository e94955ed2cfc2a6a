package scan

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Meter renders a single-line progress readout while a scan runs. A nil
// Meter is valid and does nothing, so callers only construct one when a
// terminal is attached.
type Meter struct {
	w      io.Writer
	total  int64
	done   atomic.Int64
	cached atomic.Int64
	start  time.Time
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewMeter starts a meter for total items writing to w. Returns nil when
// w is nil.
func NewMeter(w io.Writer, total int) *Meter {
	if w == nil {
		return nil
	}
	m := &Meter{
		w:     w,
		total: int64(total),
		start: time.Now(),
		stop:  make(chan struct{}),
	}
	m.wg.Add(1)
	go m.loop()
	return m
}

// Step records one finished item.
func (m *Meter) Step(cached bool) {
	if m == nil {
		return
	}
	m.done.Add(1)
	if cached {
		m.cached.Add(1)
	}
}

// Finish stops the render loop and prints the final line.
func (m *Meter) Finish() {
	if m == nil {
		return
	}
	close(m.stop)
	m.wg.Wait()
	m.render()
	fmt.Fprintln(m.w)
}

func (m *Meter) loop() {
	defer m.wg.Done()
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			m.render()
		case <-m.stop:
			return
		}
	}
}

func (m *Meter) render() {
	done := m.done.Load()
	pct := int64(100)
	if m.total > 0 {
		pct = done * 100 / m.total
	}

	eta := "--"
	if done > 0 && done < m.total {
		elapsed := time.Since(m.start)
		remain := time.Duration(int64(elapsed) / done * (m.total - done))
		eta = remain.Round(time.Second).String()
	}

	fmt.Fprintf(m.w, "\r  scanning %d/%d (%d%%)  cached %d  eta %s   ",
		done, m.total, pct, m.cached.Load(), eta)
}
