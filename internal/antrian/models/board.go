package models

import "sort"

// NextLimit adalah jumlah antrian berikutnya yang ditampilkan di papan.
const NextLimit = 5

// Board adalah read model papan antrian, dihitung ulang dari snapshot setiap kali.
type Board struct {
	Current    *QueueEntry  `json:"current"`
	InProgress *QueueEntry  `json:"in_progress"`
	Next       []QueueEntry `json:"next"`
}

// SortEntries mengurutkan salinan entry berdasarkan posisi, lalu check-in paling awal,
// lalu id agar urutan stabil. isPriority tidak ikut menentukan urutan.
func SortEntries(entries []QueueEntry) []QueueEntry {
	out := make([]QueueEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CheckInTime.Equal(b.CheckInTime) {
			return a.CheckInTime.Before(b.CheckInTime)
		}
		return a.ID < b.ID
	})
	return out
}

// DeriveBoard adalah fungsi murni dari snapshot: current = WAITING/CALLED dengan posisi
// terendah, inProgress = IN_PROGRESS pertama, next = WAITING lain (maks NextLimit).
func DeriveBoard(entries []QueueEntry) Board {
	b := Board{Next: []QueueEntry{}}
	for _, e := range SortEntries(entries) {
		if e.Status.IsTerminal() {
			continue
		}
		e := e
		switch e.Status {
		case StatusWaiting, StatusCalled:
			if b.Current == nil {
				b.Current = &e
				continue
			}
			if e.Status == StatusWaiting && len(b.Next) < NextLimit {
				b.Next = append(b.Next, e)
			}
		case StatusInProgress:
			if b.InProgress == nil {
				b.InProgress = &e
			}
		}
	}
	return b
}

// Head mengembalikan entry WAITING terdepan (posisi terendah), hanya entry ini yang boleh dipanggil.
func Head(entries []QueueEntry) (QueueEntry, bool) {
	for _, e := range SortEntries(entries) {
		if e.Status == StatusWaiting {
			return e, true
		}
	}
	return QueueEntry{}, false
}

// EstimateWaits mengisi EstimatedWaitTime untuk entry WAITING: jumlah entry aktif di
// depannya dikali rata-rata menit konsultasi. Entry lain dikosongkan.
func EstimateWaits(entries []QueueEntry, avgMinutes int) []QueueEntry {
	sorted := SortEntries(entries)
	ahead := 0
	for i := range sorted {
		e := &sorted[i]
		if e.Status.IsTerminal() {
			e.EstimatedWaitTime = nil
			continue
		}
		if e.Status == StatusWaiting {
			w := ahead * avgMinutes
			e.EstimatedWaitTime = &w
		} else {
			e.EstimatedWaitTime = nil
		}
		ahead++
	}
	return sorted
}
