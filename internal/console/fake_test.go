package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	konsultasiModels "github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	obatModels "github.com/c14220110/poliklinik-antrian/internal/obat/models"
	pasienModels "github.com/c14220110/poliklinik-antrian/internal/pasien/models"
	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

// fakeAPI adalah server poliklinik di memori dengan aturan transisi yang sama.
type fakeAPI struct {
	mu  sync.Mutex
	now time.Time

	entries    []antrianModels.QueueEntry
	catalog    []obatModels.Obat
	categories []obatModels.CategoryCount
	patients   []pasienModels.Pasien
	rx         map[int64]resepModels.Prescription

	calls         map[string]int
	searchQueries []string
	submitted     []konsultasiModels.ConsultationCompletion

	// errs diisi untuk memaksa method tertentu gagal.
	errs map[string]error
	// hooks dijalankan di luar lock setelah data disalin, dipakai untuk menahan respons.
	hooks map[string]func(call int)
}

func newFakeAPI(entries ...antrianModels.QueueEntry) *fakeAPI {
	return &fakeAPI{
		now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local),
		entries: entries,
		catalog: []obatModels.Obat{
			{ID: 1, GenericName: "Paracetamol", Strength: "500 mg", DosageForm: "Tablet", Category: "Analgesik", PricePerUnit: 500, Stock: 100, Unit: "tablet"},
			{ID: 2, GenericName: "Amoxicillin", Strength: "500 mg", DosageForm: "Kapsul", Category: "Antibiotik", PricePerUnit: 1200, Stock: 50, Unit: "kapsul", RequiresPrescription: true},
		},
		categories: []obatModels.CategoryCount{{Category: "Analgesik", Count: 1}, {Category: "Antibiotik", Count: 1}},
		patients:   []pasienModels.Pasien{{ID: 10, FullName: "Budi Santoso", NIK: "3578010101900001"}},
		rx:         map[int64]resepModels.Prescription{},
		calls:      map[string]int{},
		errs:       map[string]error{},
		hooks:      map[string]func(int){},
	}
}

func waiting(id int64, pos int) antrianModels.QueueEntry {
	return antrianModels.QueueEntry{
		ID:          id,
		QueueNumber: fmt.Sprintf("A%03d", pos),
		QueueDate:   "2026-03-02",
		Status:      antrianModels.StatusWaiting,
		Position:    pos,
		CheckInTime: time.Date(2026, 3, 2, 8, pos, 0, 0, time.Local),
		User:        antrianModels.PatientSnapshot{ID: 100 + id, FullName: fmt.Sprintf("Pasien %d", id)},
	}
}

// begin mencatat panggilan dan mengembalikan error paksa jika ada. Harus dipanggil dengan lock.
func (f *fakeAPI) begin(method string) (int, error) {
	f.calls[method]++
	return f.calls[method], f.errs[method]
}

func (f *fakeAPI) hook(method string, n int) {
	f.mu.Lock()
	h := f.hooks[method]
	f.mu.Unlock()
	if h != nil {
		h(n)
	}
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) setErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

func (f *fakeAPI) setHook(method string, h func(call int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[method] = h
}

func (f *fakeAPI) GetActiveQueues(ctx context.Context, date string) (antrianModels.ActiveQueues, error) {
	f.mu.Lock()
	n, err := f.begin("get")
	out := antrianModels.ActiveQueues{
		Queues:     append([]antrianModels.QueueEntry(nil), f.entries...),
		Statistics: antrianModels.CountStatistics(f.entries),
	}
	f.mu.Unlock()
	f.hook("get", n)
	if err != nil {
		return antrianModels.ActiveQueues{}, err
	}
	return out, nil
}

func (f *fakeAPI) find(id int64) (int, error) {
	for i, e := range f.entries {
		if e.ID == id {
			return i, nil
		}
	}
	return -1, apperr.NotFound("queue_not_found", "antrian tidak ditemukan")
}

func (f *fakeAPI) transition(method string, id int64, action antrianModels.Action, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin(method); err != nil {
		return err
	}
	i, err := f.find(id)
	if err != nil {
		return err
	}
	if action == antrianModels.ActionCall {
		if head, ok := antrianModels.Head(f.entries); !ok || head.ID != id {
			return apperr.Conflict("not_queue_head", "bukan antrian terdepan")
		}
	}
	next, err := antrianModels.Apply(f.entries[i], action, f.now, reason)
	if err != nil {
		return err
	}
	f.entries[i] = next
	return nil
}

func (f *fakeAPI) CallPatient(ctx context.Context, id int64) error {
	return f.transition("call", id, antrianModels.ActionCall, "")
}

func (f *fakeAPI) StartConsultation(ctx context.Context, id int64) error {
	return f.transition("start", id, antrianModels.ActionStart, "")
}

func (f *fakeAPI) CompleteConsultation(ctx context.Context, id int64) error {
	return f.transition("complete", id, antrianModels.ActionComplete, "")
}

func (f *fakeAPI) CancelQueue(ctx context.Context, id int64, reason string) error {
	return f.transition("cancel", id, antrianModels.ActionCancel, reason)
}

func (f *fakeAPI) SubmitConsultationCompletion(ctx context.Context, id int64, c konsultasiModels.ConsultationCompletion) (konsultasiModels.CompletionResult, error) {
	f.mu.Lock()
	n, err := f.begin("submit")
	f.mu.Unlock()
	f.hook("submit", n)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		return konsultasiModels.CompletionResult{}, err
	}
	f.submitted = append(f.submitted, c)
	if err := c.Validate(); err != nil {
		return konsultasiModels.CompletionResult{}, err
	}
	i, err := f.find(id)
	if err != nil {
		return konsultasiModels.CompletionResult{}, err
	}
	next, err := antrianModels.Apply(f.entries[i], antrianModels.ActionComplete, f.now, "")
	if err != nil {
		return konsultasiModels.CompletionResult{}, err
	}
	f.entries[i] = next

	res := konsultasiModels.CompletionResult{ConsultationID: int64(len(f.submitted)), QueueID: id}
	for _, l := range c.Prescriptions {
		price := l.Price
		if l.MedicationID != nil {
			for _, o := range f.catalog {
				if o.ID == *l.MedicationID {
					price = o.PricePerUnit
				}
			}
		}
		res.TotalAmount += int64(l.Quantity) * price
	}
	if len(c.Prescriptions) > 0 {
		rxID := int64(len(f.rx) + 1)
		res.PrescriptionID = &rxID
		res.PrescriptionCode = fmt.Sprintf("RX-20260302-%08d", rxID)
	}
	return res, nil
}

func (f *fakeAPI) SearchMedications(ctx context.Context, query, category string, limit int) ([]obatModels.Obat, error) {
	f.mu.Lock()
	n, err := f.begin("search")
	f.searchQueries = append(f.searchQueries, query)
	var out []obatModels.Obat
	for _, o := range f.catalog {
		if category != "" && o.Category != category {
			continue
		}
		if strings.Contains(strings.ToLower(o.GenericName), strings.ToLower(query)) {
			out = append(out, o)
		}
	}
	f.mu.Unlock()
	f.hook("search", n)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, apperr.Transient("network_error", ctx.Err())
	}
	return out, nil
}

func (f *fakeAPI) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchQueries...)
}

func (f *fakeAPI) GetMedicationCategories(ctx context.Context) ([]obatModels.CategoryCount, error) {
	f.mu.Lock()
	n, err := f.begin("categories")
	out := append([]obatModels.CategoryCount(nil), f.categories...)
	f.mu.Unlock()
	f.hook("categories", n)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, apperr.Transient("network_error", ctx.Err())
	}
	return out, nil
}

func (f *fakeAPI) SearchPatients(ctx context.Context, query string, limit int) ([]pasienModels.Pasien, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("patients"); err != nil {
		return nil, err
	}
	var out []pasienModels.Pasien
	for _, p := range f.patients {
		if strings.Contains(strings.ToLower(p.FullName), strings.ToLower(query)) || strings.HasPrefix(p.NIK, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetPrescription(ctx context.Context, id int64) (resepModels.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("rx_get"); err != nil {
		return resepModels.Prescription{}, err
	}
	p, ok := f.rx[id]
	if !ok {
		return p, apperr.NotFound("prescription_not_found", "resep tidak ditemukan")
	}
	return p, nil
}

func (f *fakeAPI) UpdatePrescriptionPayment(ctx context.Context, id int64, upd resepModels.PaymentUpdate) (resepModels.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("rx_payment"); err != nil {
		return resepModels.Prescription{}, err
	}
	p := f.rx[id]
	p.PaymentStatus = upd.PaymentStatus
	p.PaymentMethod = upd.PaymentMethod
	p.PharmacyNotes = upd.PharmacyNotes
	f.rx[id] = p
	return p, nil
}

func (f *fakeAPI) DispensePrescription(ctx context.Context, id int64, req resepModels.DispenseRequest) (resepModels.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("rx_dispense"); err != nil {
		return resepModels.Prescription{}, err
	}
	p := f.rx[id]
	at := f.now
	p.IsDispensed = true
	p.DispensedAt = &at
	p.DispensedBy = "Apt. Rina"
	if req.PharmacyNotes != "" {
		p.PharmacyNotes = req.PharmacyNotes
	}
	f.rx[id] = p
	return p, nil
}

var _ ClinicAPI = (*fakeAPI)(nil)
