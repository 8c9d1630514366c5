package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

const (
	MinDiagnosisLen = 10
	MaxDiagnosisLen = 500
	MinTreatmentLen = 10
	MaxTreatmentLen = 1000
	MaxNotesLen     = 500
)

// FollowUpOptions adalah pilihan jadwal kontrol (hari).
var FollowUpOptions = []int{3, 7, 14, 30}

func ValidFollowUp(days int) bool {
	for _, d := range FollowUpOptions {
		if d == days {
			return true
		}
	}
	return false
}

type TestType string

const (
	TestBlood   TestType = "BLOOD"
	TestUrine   TestType = "URINE"
	TestStool   TestType = "STOOL"
	TestImaging TestType = "IMAGING"
	TestECG     TestType = "ECG"
	TestOther   TestType = "OTHER"
)

func (t TestType) Valid() bool {
	switch t {
	case TestBlood, TestUrine, TestStool, TestImaging, TestECG, TestOther:
		return true
	}
	return false
}

type TestCategory string

const (
	CategoryGeneral      TestCategory = "GENERAL"
	CategoryChemistry    TestCategory = "CHEMISTRY"
	CategoryHematology   TestCategory = "HEMATOLOGY"
	CategoryMicrobiology TestCategory = "MICROBIOLOGY"
	CategoryImmunology   TestCategory = "IMMUNOLOGY"
	CategoryRadiology    TestCategory = "RADIOLOGY"
	CategoryCardiology   TestCategory = "CARDIOLOGY"
)

func (c TestCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryChemistry, CategoryHematology, CategoryMicrobiology,
		CategoryImmunology, CategoryRadiology, CategoryCardiology:
		return true
	}
	return false
}

type LabTestOrder struct {
	TestName   string       `json:"test_name"`
	TestType   TestType     `json:"test_type"`
	Category   TestCategory `json:"category"`
	Notes      string       `json:"notes,omitempty"`
	IsCritical bool         `json:"is_critical"`
}

// VitalSigns disimpan sebagai teks seperti yang diinput di form.
type VitalSigns struct {
	Temperature     string `json:"temperature,omitempty"`
	BloodPressure   string `json:"blood_pressure,omitempty"`
	HeartRate       string `json:"heart_rate,omitempty"`
	RespiratoryRate string `json:"respiratory_rate,omitempty"`
	Weight          string `json:"weight,omitempty"`
	Height          string `json:"height,omitempty"`
}

func (v VitalSigns) IsEmpty() bool {
	for _, s := range []string{v.Temperature, v.BloodPressure, v.HeartRate, v.RespiratoryRate, v.Weight, v.Height} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// BMI hanya untuk tampilan: berat / (tinggi/100)^2, dibulatkan 1 desimal.
func (v VitalSigns) BMI() (float64, bool) {
	w, err1 := strconv.ParseFloat(strings.TrimSpace(v.Weight), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(v.Height), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, false
	}
	m := h / 100
	return math.Round(w/(m*m)*10) / 10, true
}

// ConsultationCompletion adalah agregat yang dikirim sekali untuk menutup antrian.
// Slice kosong dihilangkan dari JSON: "tidak ada resep" berbeda dengan "hapus resep".
type ConsultationCompletion struct {
	QueueID       int64                          `json:"queue_id"`
	Diagnosis     string                         `json:"diagnosis"`
	Treatment     string                         `json:"treatment"`
	Notes         string                         `json:"notes,omitempty"`
	VitalSigns    *VitalSigns                    `json:"vital_signs,omitempty"`
	FollowUpDays  *int                           `json:"follow_up_days,omitempty"`
	Prescriptions []resepModels.PrescriptionLine `json:"prescriptions,omitempty"`
	LabTests      []LabTestOrder                 `json:"lab_tests,omitempty"`
}

func runeLen(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// Validate mengembalikan pelanggaran pertama. Urutan aturan: diagnosis, treatment,
// catatan, follow-up, baris resep, pemeriksaan lab.
func (c ConsultationCompletion) Validate() error {
	errs := c.ValidateAll()
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// ValidateAll mengumpulkan semua pelanggaran supaya form bisa menandai semua field sekaligus.
func (c ConsultationCompletion) ValidateAll() []*apperr.Error {
	var errs []*apperr.Error
	add := func(err error) {
		if err == nil {
			return
		}
		if ae, ok := err.(*apperr.Error); ok {
			errs = append(errs, ae)
		}
	}

	switch n := runeLen(c.Diagnosis); {
	case n < MinDiagnosisLen:
		add(apperr.Validation("diagnosis", "diagnosis_too_short",
			fmt.Sprintf("diagnosis minimal %d karakter", MinDiagnosisLen)))
	case n > MaxDiagnosisLen:
		add(apperr.Validation("diagnosis", "diagnosis_too_long",
			fmt.Sprintf("diagnosis maksimal %d karakter", MaxDiagnosisLen)))
	}
	switch n := runeLen(c.Treatment); {
	case n < MinTreatmentLen:
		add(apperr.Validation("treatment", "treatment_too_short",
			fmt.Sprintf("tindakan/terapi minimal %d karakter", MinTreatmentLen)))
	case n > MaxTreatmentLen:
		add(apperr.Validation("treatment", "treatment_too_long",
			fmt.Sprintf("tindakan/terapi maksimal %d karakter", MaxTreatmentLen)))
	}
	if runeLen(c.Notes) > MaxNotesLen {
		add(apperr.Validation("notes", "notes_too_long", fmt.Sprintf("catatan maksimal %d karakter", MaxNotesLen)))
	}
	if c.FollowUpDays != nil && !ValidFollowUp(*c.FollowUpDays) {
		add(apperr.Validation("follow_up_days", "invalid_follow_up", "jadwal kontrol harus 3, 7, 14, atau 30 hari"))
	}
	add(resepModels.ValidateLines("prescriptions", c.Prescriptions))
	for i, lt := range c.LabTests {
		path := fmt.Sprintf("lab_tests[%d]", i)
		if strings.TrimSpace(lt.TestName) == "" {
			add(apperr.Validation(path+".test_name", "test_name_required", "nama pemeriksaan wajib diisi"))
			continue
		}
		if !lt.TestType.Valid() {
			add(apperr.Validation(path+".test_type", "invalid_test_type", "jenis pemeriksaan tidak valid"))
		}
		if !lt.Category.Valid() {
			add(apperr.Validation(path+".category", "invalid_category", "kategori pemeriksaan tidak valid"))
		}
	}
	return errs
}

// Normalize menerapkan aturan perakitan: teks di-trim, slice kosong menjadi nil,
// tanda vital tanpa isi dihilangkan.
func (c ConsultationCompletion) Normalize() ConsultationCompletion {
	out := c
	out.Diagnosis = strings.TrimSpace(c.Diagnosis)
	out.Treatment = strings.TrimSpace(c.Treatment)
	out.Notes = strings.TrimSpace(c.Notes)
	if c.VitalSigns == nil || c.VitalSigns.IsEmpty() {
		out.VitalSigns = nil
	}
	if len(c.Prescriptions) == 0 {
		out.Prescriptions = nil
	} else {
		out.Prescriptions = make([]resepModels.PrescriptionLine, len(c.Prescriptions))
		for i, l := range c.Prescriptions {
			l.MedicationName = strings.TrimSpace(l.MedicationName)
			out.Prescriptions[i] = l
		}
	}
	if len(c.LabTests) == 0 {
		out.LabTests = nil
	} else {
		out.LabTests = make([]LabTestOrder, len(c.LabTests))
		for i, lt := range c.LabTests {
			lt.TestName = strings.TrimSpace(lt.TestName)
			if lt.TestType == "" {
				lt.TestType = TestOther
			}
			if lt.Category == "" {
				lt.Category = CategoryGeneral
			}
			out.LabTests[i] = lt
		}
	}
	return out
}

func (c ConsultationCompletion) EstimatedTotal() int64 {
	return resepModels.EstimatedTotal(c.Prescriptions)
}

// CompletionResult dikembalikan server setelah agregat diterima.
type CompletionResult struct {
	ConsultationID   int64   `json:"id_konsultasi"`
	QueueID          int64   `json:"id_antrian"`
	PrescriptionID   *int64  `json:"id_resep,omitempty"`
	PrescriptionCode string  `json:"kode_resep,omitempty"`
	TotalAmount      int64   `json:"total_harga"`
	FollowUpDate     *string `json:"follow_up_date,omitempty"`
}
