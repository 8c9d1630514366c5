package console

import (
	"context"
	"sync/atomic"
	"time"
)

// Poller menjalankan fetch secara periodik dan saat diminta. Semua fetch berjalan
// berurutan di goroutine Run, jadi tidak pernah ada dua fetch bersamaan.
type Poller struct {
	interval time.Duration
	fetch    func(ctx context.Context)
	enabled  atomic.Bool
	resumes  atomic.Uint64
	trigger  chan struct{}
	wake     chan struct{}
}

func NewPoller(interval time.Duration, fetch func(ctx context.Context)) *Poller {
	p := &Poller{
		interval: interval,
		fetch:    fetch,
		trigger:  make(chan struct{}, 1),
		wake:     make(chan struct{}, 1),
	}
	p.enabled.Store(true)
	return p
}

// Trigger meminta satu fetch segera. Permintaan yang menumpuk digabung menjadi satu.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// SetEnabled menyalakan atau mematikan auto-refresh. Menyalakan kembali langsung memicu fetch.
func (p *Poller) SetEnabled(on bool) {
	if p.enabled.Swap(on) == on {
		return
	}
	if on {
		p.resumes.Add(1)
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) Enabled() bool {
	return p.enabled.Load()
}

// Run memblok sampai ctx selesai. Fetch pertama dilakukan segera.
func (p *Poller) Run(ctx context.Context) {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	startTicker := func() {
		if ticker == nil {
			ticker = time.NewTicker(p.interval)
			tick = ticker.C
		}
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	seen := p.resumes.Load()
	if p.Enabled() {
		startTicker()
	}
	p.fetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			p.fetch(ctx)
		case <-p.trigger:
			p.fetch(ctx)
		case <-p.wake:
			// mati lalu hidup lagi di antara dua wake tetap dihitung sebagai restart.
			if r := p.resumes.Load(); p.Enabled() && r != seen {
				seen = r
				stopTicker()
				startTicker()
				p.fetch(ctx)
			} else if !p.Enabled() {
				stopTicker()
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}
