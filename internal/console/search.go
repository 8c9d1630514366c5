package console

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	obatModels "github.com/c14220110/poliklinik-antrian/internal/obat/models"
	pasienModels "github.com/c14220110/poliklinik-antrian/internal/pasien/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

// searchBox adalah inti pencarian ber-debounce. P adalah parameter pencarian (query
// plus filter), T adalah tipe hasil. Hanya respons untuk parameter terakhir yang diterapkan.
type searchBox[P comparable, T any] struct {
	delay    time.Duration
	fetch    func(ctx context.Context, p P) ([]T, error)
	queryOf  func(p P) string
	log      *logger.Logger
	onChange func()

	mu       sync.Mutex
	debounce *Debouncer
	ctx      context.Context
	cancel   context.CancelFunc
	open     bool
	params   P
	results  []T
	loading  bool
	warning  string
}

func (s *searchBox[P, T]) start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.debounce = NewDebouncer(s.delay)
	s.open = true
	s.results = []T{}
	s.loading = false
	s.warning = ""
}

// stop membuang pencarian yang menunggu; respons yang datang terlambat diabaikan.
func (s *searchBox[P, T]) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.open = false
	s.debounce.Stop()
	s.cancel()
	s.loading = false
}

// session mengembalikan konteks dan debouncer milik sesi buka yang sedang aktif.
// Debouncer dibuat ulang setiap start, jadi bisa dipakai sebagai identitas sesi.
func (s *searchBox[P, T]) session() (context.Context, *Debouncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx, s.debounce
}

func (s *searchBox[P, T]) set(p P) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.params = p
	d := s.debounce
	ctx := s.ctx
	if utf8.RuneCountInString(strings.TrimSpace(s.queryOf(p))) < utils.MinQueryLen {
		s.results = []T{}
		s.loading = false
		s.warning = ""
		s.mu.Unlock()
		d.Cancel()
		s.changed()
		return
	}
	s.loading = true
	s.mu.Unlock()

	d.Trigger(func(gen uint64) {
		s.run(ctx, d, gen, p)
	})
	s.changed()
}

func (s *searchBox[P, T]) run(ctx context.Context, d *Debouncer, gen uint64, p P) {
	res, err := s.fetch(ctx, p)

	s.mu.Lock()
	if !s.open || !d.IsCurrent(gen) || s.params != p {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.results = []T{}
		s.warning = apperr.Message(err)
	} else {
		if res == nil {
			res = []T{}
		}
		s.results = res
		s.warning = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithComponent("pencarian").WithError(err).Warn("Pencarian gagal, hasil dikosongkan")
	}
	s.changed()
}

func (s *searchBox[P, T]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

type medicationParams struct {
	Query    string
	Category string
}

// MedicationSearchState adalah salinan state panel pencarian obat.
type MedicationSearchState struct {
	Query      string
	Category   string
	Categories []obatModels.CategoryCount
	Results    []obatModels.Obat
	Loading    bool
	Warning    string
}

// MedicationSearch menghubungkan input pencarian obat di dialog penyelesaian dengan katalog.
// Kategori dimuat sekali setiap kali dibuka dan tidak bergantung pada teks query.
type MedicationSearch struct {
	API ClinicAPI
	box searchBox[medicationParams, obatModels.Obat]

	mu         sync.Mutex
	categories []obatModels.CategoryCount
	catWarning string
}

func NewMedicationSearch(api ClinicAPI, delay time.Duration, log *logger.Logger) *MedicationSearch {
	m := &MedicationSearch{API: api}
	m.box = searchBox[medicationParams, obatModels.Obat]{
		delay: delay,
		log:   log,
		fetch: func(ctx context.Context, p medicationParams) ([]obatModels.Obat, error) {
			return api.SearchMedications(ctx, strings.TrimSpace(p.Query), p.Category, obatModels.DefaultSearchLimit)
		},
		queryOf: func(p medicationParams) string { return p.Query },
	}
	return m
}

// SetOnChange mendaftarkan callback yang dipanggil setiap hasil atau status berubah.
func (m *MedicationSearch) SetOnChange(fn func()) {
	m.box.onChange = fn
}

// Open memuat daftar kategori. Kegagalan hanya menghasilkan peringatan. Jawaban yang
// datang setelah Close, atau milik sesi buka sebelumnya, dibuang.
func (m *MedicationSearch) Open(ctx context.Context) {
	m.box.start(ctx)
	sctx, d := m.box.session()

	cats, err := m.API.GetMedicationCategories(sctx)

	m.box.mu.Lock()
	if !m.box.open || m.box.debounce != d {
		m.box.mu.Unlock()
		return
	}
	m.mu.Lock()
	if err != nil {
		m.categories = []obatModels.CategoryCount{}
		m.catWarning = apperr.Message(err)
	} else {
		m.categories = cats
		m.catWarning = ""
	}
	m.mu.Unlock()
	m.box.mu.Unlock()
	if err != nil {
		m.box.log.WithComponent("pencarian").WithError(err).Warn("Gagal memuat kategori obat")
	}
	m.box.changed()
}

func (m *MedicationSearch) Close() {
	m.box.stop()
}

func (m *MedicationSearch) SetQuery(q string) {
	m.box.mu.Lock()
	p := m.box.params
	m.box.mu.Unlock()
	p.Query = q
	m.box.set(p)
}

// SetCategory mengganti filter; query yang sedang aktif dicari ulang.
func (m *MedicationSearch) SetCategory(category string) {
	m.box.mu.Lock()
	p := m.box.params
	m.box.mu.Unlock()
	p.Category = category
	m.box.set(p)
}

func (m *MedicationSearch) State() MedicationSearchState {
	m.box.mu.Lock()
	st := MedicationSearchState{
		Query:    m.box.params.Query,
		Category: m.box.params.Category,
		Results:  append([]obatModels.Obat{}, m.box.results...),
		Loading:  m.box.loading,
		Warning:  m.box.warning,
	}
	m.box.mu.Unlock()

	m.mu.Lock()
	st.Categories = append([]obatModels.CategoryCount{}, m.categories...)
	if st.Warning == "" {
		st.Warning = m.catWarning
	}
	m.mu.Unlock()
	return st
}

// PatientSearchState adalah salinan state pencarian pasien.
type PatientSearchState struct {
	Query   string
	Results []pasienModels.Pasien
	Loading bool
	Warning string
}

// PatientSearch memakai debounce sendiri, terpisah dari pencarian obat.
type PatientSearch struct {
	box searchBox[string, pasienModels.Pasien]
}

func NewPatientSearch(api ClinicAPI, delay time.Duration, log *logger.Logger) *PatientSearch {
	return &PatientSearch{box: searchBox[string, pasienModels.Pasien]{
		delay: delay,
		log:   log,
		fetch: func(ctx context.Context, q string) ([]pasienModels.Pasien, error) {
			return api.SearchPatients(ctx, strings.TrimSpace(q), pasienModels.DefaultSearchLimit)
		},
		queryOf: func(q string) string { return q },
	}}
}

func (p *PatientSearch) SetOnChange(fn func()) {
	p.box.onChange = fn
}

func (p *PatientSearch) Open(ctx context.Context) { p.box.start(ctx) }

func (p *PatientSearch) Close() { p.box.stop() }

func (p *PatientSearch) SetQuery(q string) { p.box.set(q) }

func (p *PatientSearch) State() PatientSearchState {
	p.box.mu.Lock()
	defer p.box.mu.Unlock()
	return PatientSearchState{
		Query:   p.box.params,
		Results: append([]pasienModels.Pasien{}, p.box.results...),
		Loading: p.box.loading,
		Warning: p.box.warning,
	}
}
