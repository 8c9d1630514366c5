package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	obatModels "github.com/c14220110/poliklinik-antrian/internal/obat/models"
	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

var (
	// ErrBusy dikembalikan untuk aksi apa pun selama permintaan sebelumnya masih berjalan.
	ErrBusy = apperr.Conflict("busy", "masih memproses permintaan sebelumnya")
	// ErrUnsavedChanges: dialog berisi data, penutupan butuh konfirmasi.
	ErrUnsavedChanges = apperr.Conflict("unsaved_changes", "data konsultasi belum disimpan, yakin ingin menutup?")
)

type Phase string

const (
	PhaseEditing    Phase = "EDITING"
	PhaseSubmitting Phase = "SUBMITTING"
	PhaseSuccess    Phase = "SUCCESS"
	PhaseClosed     Phase = "CLOSED"
)

// Edit adalah perubahan bertipe pada draft penyelesaian. Himpunannya tertutup:
// hanya tipe di file ini yang mengimplementasikannya.
type Edit interface {
	apply(c *models.ConsultationCompletion) error
}

type SetDiagnosis struct{ Value string }

func (e SetDiagnosis) apply(c *models.ConsultationCompletion) error {
	c.Diagnosis = e.Value
	return nil
}

type SetTreatment struct{ Value string }

func (e SetTreatment) apply(c *models.ConsultationCompletion) error {
	c.Treatment = e.Value
	return nil
}

type SetNotes struct{ Value string }

func (e SetNotes) apply(c *models.ConsultationCompletion) error {
	c.Notes = e.Value
	return nil
}

type VitalField int

const (
	VitalTemperature VitalField = iota
	VitalBloodPressure
	VitalHeartRate
	VitalRespiratoryRate
	VitalWeight
	VitalHeight
)

type SetVitalSign struct {
	Field VitalField
	Value string
}

func (e SetVitalSign) apply(c *models.ConsultationCompletion) error {
	v := models.VitalSigns{}
	if c.VitalSigns != nil {
		v = *c.VitalSigns
	}
	switch e.Field {
	case VitalTemperature:
		v.Temperature = e.Value
	case VitalBloodPressure:
		v.BloodPressure = e.Value
	case VitalHeartRate:
		v.HeartRate = e.Value
	case VitalRespiratoryRate:
		v.RespiratoryRate = e.Value
	case VitalWeight:
		v.Weight = e.Value
	case VitalHeight:
		v.Height = e.Value
	default:
		return apperr.Validation("vital_signs", "unknown_vital_field", "tanda vital tidak dikenal")
	}
	c.VitalSigns = &v
	return nil
}

// SetFollowUp: Days nil berarti tanpa jadwal kontrol.
type SetFollowUp struct{ Days *int }

func (e SetFollowUp) apply(c *models.ConsultationCompletion) error {
	if e.Days == nil {
		c.FollowUpDays = nil
		return nil
	}
	if !models.ValidFollowUp(*e.Days) {
		return apperr.Validation("follow_up_days", "invalid_follow_up", "jadwal kontrol harus 3, 7, 14, atau 30 hari")
	}
	d := *e.Days
	c.FollowUpDays = &d
	return nil
}

// AddMedication menambahkan obat dari katalog. Obat yang sudah ada ditolak tanpa
// mengubah baris apa pun.
type AddMedication struct{ Medication obatModels.Obat }

func (e AddMedication) apply(c *models.ConsultationCompletion) error {
	m := e.Medication
	if resepModels.ContainsMedication(c.Prescriptions, m.ID) {
		return apperr.Conflict("duplicate_medication",
			fmt.Sprintf("%s sudah ada di daftar resep", m.DisplayName()))
	}
	id := m.ID
	c.Prescriptions = append(c.Prescriptions, resepModels.PrescriptionLine{
		MedicationID:   &id,
		MedicationName: m.DisplayName(),
		Dosage:         m.Strength,
		Quantity:       1,
		Price:          m.PricePerUnit,
		Instructions:   m.DosageInstructions,
	})
	return nil
}

// AddManualLine menambahkan obat di luar katalog.
type AddManualLine struct {
	Name  string
	Price int64
}

func (e AddManualLine) apply(c *models.ConsultationCompletion) error {
	c.Prescriptions = append(c.Prescriptions, resepModels.PrescriptionLine{
		MedicationName: e.Name,
		Quantity:       1,
		Price:          e.Price,
	})
	return nil
}

type LineField int

const (
	LineName LineField = iota
	LineDosage
	LineFrequency
	LineDuration
	LineInstructions
	LineNotes
)

type SetLineText struct {
	Index int
	Field LineField
	Value string
}

func (e SetLineText) apply(c *models.ConsultationCompletion) error {
	l, err := line(c, e.Index)
	if err != nil {
		return err
	}
	switch e.Field {
	case LineName:
		l.MedicationName = e.Value
	case LineDosage:
		l.Dosage = e.Value
	case LineFrequency:
		l.Frequency = e.Value
	case LineDuration:
		l.Duration = e.Value
	case LineInstructions:
		l.Instructions = e.Value
	case LineNotes:
		l.Notes = e.Value
	default:
		return apperr.Validation(fmt.Sprintf("prescriptions[%d]", e.Index), "unknown_line_field", "kolom resep tidak dikenal")
	}
	return nil
}

type SetLineQuantity struct {
	Index    int
	Quantity int
}

func (e SetLineQuantity) apply(c *models.ConsultationCompletion) error {
	l, err := line(c, e.Index)
	if err != nil {
		return err
	}
	l.Quantity = e.Quantity
	return nil
}

type SetLinePrice struct {
	Index int
	Price int64
}

func (e SetLinePrice) apply(c *models.ConsultationCompletion) error {
	l, err := line(c, e.Index)
	if err != nil {
		return err
	}
	l.Price = e.Price
	return nil
}

type RemoveLine struct{ Index int }

func (e RemoveLine) apply(c *models.ConsultationCompletion) error {
	if _, err := line(c, e.Index); err != nil {
		return err
	}
	c.Prescriptions = append(c.Prescriptions[:e.Index:e.Index], c.Prescriptions[e.Index+1:]...)
	return nil
}

func line(c *models.ConsultationCompletion, i int) (*resepModels.PrescriptionLine, error) {
	if i < 0 || i >= len(c.Prescriptions) {
		return nil, apperr.Validation("prescriptions", "index_out_of_range", "baris resep tidak ditemukan")
	}
	return &c.Prescriptions[i], nil
}

type AddLabTest struct{ Order models.LabTestOrder }

func (e AddLabTest) apply(c *models.ConsultationCompletion) error {
	c.LabTests = append(c.LabTests, e.Order)
	return nil
}

type UpdateLabTest struct {
	Index int
	Order models.LabTestOrder
}

func (e UpdateLabTest) apply(c *models.ConsultationCompletion) error {
	if e.Index < 0 || e.Index >= len(c.LabTests) {
		return apperr.Validation("lab_tests", "index_out_of_range", "pemeriksaan lab tidak ditemukan")
	}
	c.LabTests[e.Index] = e.Order
	return nil
}

type RemoveLabTest struct{ Index int }

func (e RemoveLabTest) apply(c *models.ConsultationCompletion) error {
	if e.Index < 0 || e.Index >= len(c.LabTests) {
		return apperr.Validation("lab_tests", "index_out_of_range", "pemeriksaan lab tidak ditemukan")
	}
	c.LabTests = append(c.LabTests[:e.Index:e.Index], c.LabTests[e.Index+1:]...)
	return nil
}

// CompletionDialog adalah state machine dialog penyelesaian konsultasi:
// EDITING -> SUBMITTING -> SUCCESS, atau kembali ke EDITING dengan LastError terisi
// jika server menolak. Status antrian tidak diubah secara lokal; papan dimuat ulang
// setelah setiap percobaan submit yang sampai ke server.
type CompletionDialog struct {
	API   ClinicAPI
	Entry antrianModels.QueueEntry

	onAttempted func(ctx context.Context)

	mu          sync.Mutex
	phase       Phase
	draft       models.ConsultationCompletion
	fieldErrors []*apperr.Error
	lastErr     error
	result      *models.CompletionResult
}

// NewCompletionDialog hanya bisa dibuka untuk antrian yang sedang IN_PROGRESS.
func NewCompletionDialog(api ClinicAPI, entry antrianModels.QueueEntry, onAttempted func(ctx context.Context)) (*CompletionDialog, error) {
	if entry.Status != antrianModels.StatusInProgress {
		return nil, apperr.Conflict("not_in_progress",
			fmt.Sprintf("antrian %s berstatus %s, konsultasi belum dimulai", entry.QueueNumber, entry.Status))
	}
	return &CompletionDialog{
		API:         api,
		Entry:       entry,
		onAttempted: onAttempted,
		phase:       PhaseEditing,
		draft:       models.ConsultationCompletion{QueueID: entry.ID},
	}, nil
}

func (d *CompletionDialog) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Apply menerapkan satu edit. Jika edit ditolak, draft tidak berubah.
func (d *CompletionDialog) Apply(e Edit) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.editable(); err != nil {
		return err
	}

	next := cloneCompletion(d.draft)
	if err := e.apply(&next); err != nil {
		return err
	}
	d.draft = next
	return nil
}

func (d *CompletionDialog) editable() error {
	switch d.phase {
	case PhaseSubmitting:
		return ErrBusy
	case PhaseSuccess:
		return apperr.Conflict("already_submitted", "konsultasi sudah disimpan")
	case PhaseClosed:
		return apperr.Conflict("dialog_closed", "dialog sudah ditutup")
	}
	return nil
}

func cloneCompletion(c models.ConsultationCompletion) models.ConsultationCompletion {
	out := c
	if c.VitalSigns != nil {
		v := *c.VitalSigns
		out.VitalSigns = &v
	}
	if c.FollowUpDays != nil {
		f := *c.FollowUpDays
		out.FollowUpDays = &f
	}
	out.Prescriptions = append([]resepModels.PrescriptionLine(nil), c.Prescriptions...)
	out.LabTests = append([]models.LabTestOrder(nil), c.LabTests...)
	return out
}

// Draft mengembalikan salinan isi form.
func (d *CompletionDialog) Draft() models.ConsultationCompletion {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneCompletion(d.draft)
}

// EstimatedTotal hanya untuk tampilan; server menghitung ulang dari katalog.
func (d *CompletionDialog) EstimatedTotal() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft.EstimatedTotal()
}

// FieldErrors adalah hasil validasi terakhir, untuk menandai field di form.
func (d *CompletionDialog) FieldErrors() []*apperr.Error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*apperr.Error(nil), d.fieldErrors...)
}

func (d *CompletionDialog) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

func (d *CompletionDialog) Result() (models.CompletionResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return models.CompletionResult{}, false
	}
	return *d.result, true
}

// HasUnsavedContent true jika ada isian yang akan hilang saat dialog ditutup.
func (d *CompletionDialog) HasUnsavedContent() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.draft
	return strings.TrimSpace(c.Diagnosis) != "" ||
		strings.TrimSpace(c.Treatment) != "" ||
		len(c.Prescriptions) > 0 ||
		len(c.LabTests) > 0 ||
		(c.VitalSigns != nil && !c.VitalSigns.IsEmpty())
}

// Submit memvalidasi draft lalu mengirimnya dalam satu permintaan. Error validasi lokal
// tidak pernah menyentuh jaringan. Saat gagal, dialog kembali ke EDITING dengan draft
// utuh dan LastError terisi. onAttempted dipanggil setelah server menjawab, berhasil
// maupun gagal, karena penolakan server biasanya berarti status antrian sudah berubah.
func (d *CompletionDialog) Submit(ctx context.Context) (models.CompletionResult, error) {
	d.mu.Lock()
	if err := d.editable(); err != nil {
		d.mu.Unlock()
		return models.CompletionResult{}, err
	}
	payload := d.draft.Normalize()
	payload.QueueID = d.Entry.ID
	if errs := payload.ValidateAll(); len(errs) > 0 {
		d.fieldErrors = errs
		d.mu.Unlock()
		return models.CompletionResult{}, errs[0]
	}
	d.fieldErrors = nil
	d.lastErr = nil
	d.phase = PhaseSubmitting
	d.mu.Unlock()

	res, err := d.API.SubmitConsultationCompletion(ctx, d.Entry.ID, payload)
	if d.onAttempted != nil {
		defer d.onAttempted(ctx)
	}

	d.mu.Lock()
	if err != nil {
		d.phase = PhaseEditing
		d.lastErr = err
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind == apperr.KindValidation {
			d.fieldErrors = []*apperr.Error{ae}
		}
		d.mu.Unlock()
		return models.CompletionResult{}, err
	}
	d.phase = PhaseSuccess
	d.result = &res
	d.mu.Unlock()
	return res, nil
}

// RequestClose menutup dialog. Selama submit berjalan penutupan ditolak; jika ada
// isian yang belum tersimpan, confirmed harus true.
func (d *CompletionDialog) RequestClose(confirmed bool) error {
	d.mu.Lock()
	phase := d.phase
	d.mu.Unlock()

	switch phase {
	case PhaseSubmitting:
		return ErrBusy
	case PhaseClosed:
		return nil
	case PhaseEditing:
		if !confirmed && d.HasUnsavedContent() {
			return ErrUnsavedChanges
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseSubmitting {
		return ErrBusy
	}
	d.phase = PhaseClosed
	return nil
}
