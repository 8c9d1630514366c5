package models

type Pasien struct {
	ID           int64  `json:"id"`
	FullName     string `json:"full_name"`
	NIK          string `json:"nik"`
	Phone        string `json:"phone"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"date_of_birth"`
	MedicalRecID string `json:"id_rm,omitempty"`
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)
