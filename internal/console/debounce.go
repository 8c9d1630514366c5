package console

import (
	"sync"
	"time"
)

// Debouncer menjalankan fungsi setelah input diam selama delay. Pemicu baru membatalkan
// yang masih menunggu. Setiap pemicu mendapat nomor generasi; hasil fetch dengan generasi
// lama harus dibuang (last-query-wins) lewat IsCurrent.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger menjadwalkan fn. fn menerima generasi miliknya.
func (d *Debouncer) Trigger(fn func(gen uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.IsCurrent(gen) {
			return
		}
		fn(gen)
	})
}

// Cancel membatalkan pemicu yang menunggu dan membuat fetch yang sedang berjalan kedaluwarsa.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// IsCurrent true jika gen masih pemicu terakhir dan debouncer belum dihentikan.
func (d *Debouncer) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && gen == d.gen
}

// Stop menghentikan debouncer secara permanen.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.stopped = true
}
