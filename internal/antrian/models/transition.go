package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

type Action string

const (
	ActionCall     Action = "call"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

const DefaultCancelReason = "Dibatalkan oleh admin"

type rule struct {
	from []Status
	to   Status
}

// IN_PROGRESS sengaja tidak bisa dibatalkan; konsultasi yang sudah berjalan harus diselesaikan.
var rules = map[Action]rule{
	ActionCall:     {from: []Status{StatusWaiting}, to: StatusCalled},
	ActionStart:    {from: []Status{StatusCalled}, to: StatusInProgress},
	ActionComplete: {from: []Status{StatusInProgress}, to: StatusCompleted},
	ActionCancel:   {from: []Status{StatusWaiting, StatusCalled}, to: StatusCancelled},
}

// AllowedFrom mengembalikan status asal yang sah untuk aksi tersebut.
func AllowedFrom(a Action) []Status {
	r, ok := rules[a]
	if !ok {
		return nil
	}
	return append([]Status(nil), r.from...)
}

// NextStatus memvalidasi transisi tanpa efek samping.
func NextStatus(from Status, a Action) (Status, error) {
	r, ok := rules[a]
	if !ok {
		return "", apperr.Validation("action", "unknown_action", fmt.Sprintf("aksi %q tidak dikenal", a))
	}
	if from.IsTerminal() {
		return "", apperr.Conflict("queue_terminal",
			fmt.Sprintf("antrian sudah %s, tidak bisa di-%s", from, a))
	}
	for _, s := range r.from {
		if s == from {
			return r.to, nil
		}
	}
	return "", apperr.Conflict("invalid_transition",
		fmt.Sprintf("aksi %s tidak berlaku untuk antrian berstatus %s", a, from))
}

// Apply mengembalikan salinan entry setelah transisi. Entry asli tidak pernah diubah,
// termasuk ketika transisi ditolak.
func Apply(e QueueEntry, a Action, now time.Time, reason string) (QueueEntry, error) {
	to, err := NextStatus(e.Status, a)
	if err != nil {
		return e, err
	}

	out := e
	out.Status = to
	switch a {
	case ActionCall:
		t := notBefore(now, e.CheckInTime)
		out.CalledTime = &t
		out.EstimatedWaitTime = nil
	case ActionComplete:
		floor := e.CheckInTime
		if e.CalledTime != nil {
			floor = *e.CalledTime
		}
		t := notBefore(now, floor)
		out.CompletedTime = &t
	case ActionCancel:
		out.CancelReason = CancelReason(reason)
		out.EstimatedWaitTime = nil
	}
	return out, nil
}

// CancelReason mengisi alasan default bila kosong.
func CancelReason(reason string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return DefaultCancelReason
}

// timestamp tidak boleh mundur dari timestamp sebelumnya.
func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
