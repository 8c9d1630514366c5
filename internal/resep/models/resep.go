package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

// Pilihan baku di form resep. Teks bebas tetap diterima.
var (
	FrequencyOptions = []string{"1x sehari", "2x sehari", "3x sehari", "4x sehari", "Sesuai kebutuhan"}
	DurationOptions  = []string{"3 hari", "5 hari", "7 hari", "10 hari", "14 hari", "30 hari"}
)

// PrescriptionLine adalah satu baris obat, dipakai oleh resep digital maupun
// penyelesaian konsultasi.
type PrescriptionLine struct {
	// MedicationID nil untuk obat yang diinput manual (di luar katalog).
	MedicationID   *int64 `json:"medication_id,omitempty"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage,omitempty"`
	Frequency      string `json:"frequency,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Quantity       int    `json:"quantity"`
	// Price adalah harga satuan dalam rupiah.
	Price        int64  `json:"price"`
	Instructions string `json:"instructions,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func (l PrescriptionLine) LineTotal() int64 {
	return int64(l.Quantity) * l.Price
}

func EstimatedTotal(lines []PrescriptionLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}

// ContainsMedication true jika id obat sudah ada di daftar.
func ContainsMedication(lines []PrescriptionLine, medicationID int64) bool {
	for _, l := range lines {
		if l.MedicationID != nil && *l.MedicationID == medicationID {
			return true
		}
	}
	return false
}

// ValidateLines memeriksa setiap baris dan duplikasi obat. field dipakai sebagai
// prefix path error, mis. "prescriptions".
func ValidateLines(field string, lines []PrescriptionLine) error {
	seen := make(map[int64]int, len(lines))
	for i, l := range lines {
		path := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(l.MedicationName) == "" {
			return apperr.Validation(path+".medication_name", "medication_name_required", "nama obat wajib diisi")
		}
		if l.Quantity < 1 {
			return apperr.Validation(path+".quantity", "quantity_min", "jumlah obat minimal 1")
		}
		if l.Price < 0 {
			return apperr.Validation(path+".price", "price_negative", "harga obat tidak boleh negatif")
		}
		if l.MedicationID != nil {
			if j, dup := seen[*l.MedicationID]; dup {
				return apperr.Validation(path+".medication_id", "duplicate_medication",
					fmt.Sprintf("obat %s sudah ada di baris %d", l.MedicationName, j+1))
			}
			seen[*l.MedicationID] = i
		}
	}
	return nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodInsurance    PaymentMethod = "INSURANCE"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodInsurance, MethodCreditCard, MethodBankTransfer:
		return true
	}
	return false
}

// Prescription adalah resep digital yang dilacak pembayaran dan penyerahannya.
// IsExpired dan IsPaid selalu dihitung, tidak pernah disimpan.
type Prescription struct {
	ID               int64                         `json:"id"`
	PrescriptionCode string                        `json:"prescription_code"`
	UserID           int64                         `json:"user_id"`
	Patient          antrianModels.PatientSnapshot `json:"patient"`
	Doctor           *antrianModels.DoctorSnapshot `json:"doctor,omitempty"`
	QueueID          *int64                        `json:"queue_id,omitempty"`
	Medications      []PrescriptionLine            `json:"medications"`
	PaymentStatus    PaymentStatus                 `json:"payment_status"`
	PaymentMethod    PaymentMethod                 `json:"payment_method,omitempty"`
	PharmacyNotes    string                        `json:"pharmacy_notes,omitempty"`
	IsDispensed      bool                          `json:"is_dispensed"`
	DispensedAt      *time.Time                    `json:"dispensed_at,omitempty"`
	DispensedBy      string                        `json:"dispensed_by,omitempty"`
	TotalAmount      int64                         `json:"total_amount"`
	ExpiresAt        time.Time                     `json:"expires_at"`
	CreatedAt        time.Time                     `json:"created_at"`
}

func (p Prescription) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func (p Prescription) IsPaid() bool {
	return p.PaymentStatus == PaymentPaid
}

// CanUpdatePayment: pembayaran boleh diubah berkali-kali selama belum kedaluwarsa
// dan belum diserahkan.
func (p Prescription) CanUpdatePayment(now time.Time) error {
	if p.IsDispensed {
		return apperr.Conflict("prescription_dispensed", "resep sudah diserahkan")
	}
	if p.IsExpired(now) {
		return apperr.Conflict("prescription_expired", "resep sudah kedaluwarsa")
	}
	return nil
}

// CanDispense: hanya resep yang sudah dibayar, belum diserahkan, dan belum kedaluwarsa.
func (p Prescription) CanDispense(now time.Time) error {
	if p.IsDispensed {
		return apperr.Conflict("prescription_dispensed", "resep sudah diserahkan")
	}
	if p.IsExpired(now) {
		return apperr.Conflict("prescription_expired", "resep sudah kedaluwarsa")
	}
	if !p.IsPaid() {
		return apperr.Conflict("prescription_unpaid", "resep belum dibayar")
	}
	return nil
}

// MarshalJSON menambahkan is_expired dan is_paid yang dihitung saat dibaca.
func (p Prescription) MarshalJSON() ([]byte, error) {
	type alias Prescription
	return json.Marshal(struct {
		alias
		IsExpired bool `json:"is_expired"`
		IsPaid    bool `json:"is_paid"`
	}{
		alias:     alias(p),
		IsExpired: p.IsExpired(time.Now()),
		IsPaid:    p.IsPaid(),
	})
}

type PaymentUpdate struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PharmacyNotes string        `json:"pharmacy_notes"`
}

func (u PaymentUpdate) Validate() error {
	if !u.PaymentStatus.Valid() {
		return apperr.Validation("payment_status", "invalid_payment_status", "status pembayaran tidak valid")
	}
	if !u.PaymentMethod.Valid() {
		return apperr.Validation("payment_method", "invalid_payment_method", "metode pembayaran tidak valid")
	}
	return validateNotes(u.PharmacyNotes)
}

// MaxPharmacyNotesLen berlaku untuk catatan pembayaran maupun penyerahan.
const MaxPharmacyNotesLen = 500

func validateNotes(notes string) error {
	if len([]rune(notes)) > MaxPharmacyNotesLen {
		return apperr.Validation("pharmacy_notes", "too_long",
			fmt.Sprintf("catatan apotek maksimal %d karakter", MaxPharmacyNotesLen))
	}
	return nil
}

type DispenseRequest struct {
	PharmacyNotes string `json:"pharmacy_notes"`
}

func (r DispenseRequest) Validate() error {
	return validateNotes(r.PharmacyNotes)
}
