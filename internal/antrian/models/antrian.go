package models

import "time"

// Status antrian walk-in.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusCalled     Status = "CALLED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal: COMPLETED dan CANCELLED tidak bisa berubah lagi.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// PatientSnapshot adalah identitas pasien saat check-in.
type PatientSnapshot struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	NIK         string `json:"nik"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
}

type DoctorSnapshot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// ConsultationInfo adalah keluhan awal yang dicatat saat check-in.
type ConsultationInfo struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Symptoms []string `json:"symptoms"`
}

// QueueEntry mewakili satu kunjungan walk-in pada satu tanggal.
type QueueEntry struct {
	ID          int64  `json:"id"`
	QueueNumber string `json:"queue_number"`
	QueueDate   string `json:"queue_date"`
	Status      Status `json:"status"`
	// Position unik di antara entry non-terminal pada tanggal yang sama, tidak harus berurutan.
	Position      int        `json:"position"`
	IsPriority    bool       `json:"is_priority"`
	CheckInTime   time.Time  `json:"check_in_time"`
	CalledTime    *time.Time `json:"called_time,omitempty"`
	CompletedTime *time.Time `json:"completed_time,omitempty"`
	// EstimatedWaitTime dalam menit, hanya perkiraan.
	EstimatedWaitTime *int              `json:"estimated_wait_time,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	CancelReason      string            `json:"cancel_reason,omitempty"`
	User              PatientSnapshot   `json:"user"`
	Doctor            *DoctorSnapshot   `json:"doctor,omitempty"`
	Consultation      *ConsultationInfo `json:"consultation,omitempty"`
}

// Duration adalah lama layanan (dipanggil sampai selesai). false jika belum selesai.
func (e QueueEntry) Duration() (time.Duration, bool) {
	if e.CalledTime == nil || e.CompletedTime == nil {
		return 0, false
	}
	return e.CompletedTime.Sub(*e.CalledTime), true
}

type Statistics struct {
	Total      int `json:"total"`
	Waiting    int `json:"waiting"`
	Called     int `json:"called"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

func CountStatistics(entries []QueueEntry) Statistics {
	var st Statistics
	for _, e := range entries {
		st.Total++
		switch e.Status {
		case StatusWaiting:
			st.Waiting++
		case StatusCalled:
			st.Called++
		case StatusInProgress:
			st.InProgress++
		case StatusCompleted:
			st.Completed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	return st
}

// ActiveQueues adalah snapshot antrian satu hari.
type ActiveQueues struct {
	Queues     []QueueEntry `json:"queues"`
	Statistics Statistics   `json:"statistics"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
