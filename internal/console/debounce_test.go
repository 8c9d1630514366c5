package console

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_LastTriggerWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var got []string
	for _, q := range []string{"a", "ab", "abc"} {
		q := q
		d.Trigger(func(gen uint64) {
			mu.Lock()
			got = append(got, q)
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"abc"}, got)
}

func TestDebouncer_GenerationExpires(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	started := make(chan uint64, 1)
	d.Trigger(func(gen uint64) { started <- gen })

	gen := <-started
	assert.True(t, d.IsCurrent(gen))

	d.Cancel()
	assert.False(t, d.IsCurrent(gen), "respons untuk query lama harus dibuang")
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.Trigger(func(uint64) { fired <- struct{}{} })
	d.Stop()
	d.Trigger(func(uint64) { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("debouncer yang sudah berhenti tidak boleh menjalankan fungsi")
	case <-time.After(60 * time.Millisecond):
	}
}
