package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
)

// Notice adalah pesan yang bisa ditutup pengguna, dipakai untuk error non-fatal.
type Notice struct {
	Kind      apperr.Kind
	Code      string
	Message   string
	Retryable bool
}

func noticeFrom(err error) *Notice {
	n := &Notice{Kind: apperr.KindOf(err), Message: apperr.Message(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		n.Code = ae.Code
		n.Retryable = ae.Retryable()
	}
	return n
}

// BoardState adalah salinan state papan. Queues selalu utuh dari snapshot terakhir.
type BoardState struct {
	Date        string
	Queues      []models.QueueEntry
	Statistics  models.Statistics
	Board       models.Board
	RefreshedAt time.Time
	Notice      *Notice
}

// QueueBoard menyimpan snapshot antrian hari ini dan menjalankan aksi transisi.
// Snapshot yang datang selalu menggantikan state lokal seluruhnya; tidak ada merge.
type QueueBoard struct {
	API ClinicAPI
	Log *logger.Logger
	// OnChange dipanggil di luar lock setiap kali state berubah.
	OnChange func(BoardState)

	now func() time.Time

	mu       sync.Mutex
	state    BoardState
	issued   uint64
	applied  uint64
	inFlight map[int64]bool
}

// NewQueueBoard membuat papan untuk tanggal tertentu; date kosong berarti hari ini menurut server.
func NewQueueBoard(api ClinicAPI, date string, log *logger.Logger) *QueueBoard {
	return &QueueBoard{
		API:      api,
		Log:      log,
		now:      time.Now,
		state:    BoardState{Date: date, Board: models.DeriveBoard(nil)},
		inFlight: make(map[int64]bool),
	}
}

// State mengembalikan salinan state sehingga pemanggil tidak bisa mengubah papan.
func (b *QueueBoard) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyState()
}

func (b *QueueBoard) copyState() BoardState {
	s := b.state
	s.Queues = append([]models.QueueEntry(nil), b.state.Queues...)
	s.Board.Next = append([]models.QueueEntry(nil), b.state.Board.Next...)
	if b.state.Notice != nil {
		n := *b.state.Notice
		s.Notice = &n
	}
	return s
}

func (b *QueueBoard) notify() {
	if b.OnChange == nil {
		return
	}
	b.OnChange(b.State())
}

// Refresh mengambil snapshot baru. Respons yang lebih tua dari snapshot yang sudah
// diterapkan dibuang. Saat gagal, snapshot lama dipertahankan dan notice diisi.
func (b *QueueBoard) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.issued++
	seq := b.issued
	date := b.state.Date
	b.mu.Unlock()

	res, err := b.API.GetActiveQueues(ctx, date)

	b.mu.Lock()
	if seq <= b.applied {
		b.mu.Unlock()
		return err
	}
	if err != nil {
		b.state.Notice = noticeFrom(err)
		b.mu.Unlock()
		b.Log.WithComponent("papan").WithError(err).Warn("Gagal memuat antrian aktif")
		b.notify()
		return err
	}
	b.applied = seq
	queues := models.SortEntries(res.Queues)
	b.state.Queues = queues
	b.state.Statistics = res.Statistics
	b.state.Board = models.DeriveBoard(queues)
	b.state.RefreshedAt = b.now()
	b.mu.Unlock()

	b.notify()
	return nil
}

// Poll cocok dipakai sebagai fungsi fetch Poller.
func (b *QueueBoard) Poll(ctx context.Context) {
	_ = b.Refresh(ctx)
}

// DismissNotice menutup notice yang sedang tampil.
func (b *QueueBoard) DismissNotice() {
	b.mu.Lock()
	b.state.Notice = nil
	b.mu.Unlock()
	b.notify()
}

// Entry mencari entry di snapshot terakhir.
func (b *QueueBoard) Entry(id int64) (models.QueueEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.state.Queues {
		if e.ID == id {
			return e, true
		}
	}
	return models.QueueEntry{}, false
}

func (b *QueueBoard) Call(ctx context.Context, id int64) error {
	return b.act(ctx, id, models.ActionCall, func(ctx context.Context) error {
		return b.API.CallPatient(ctx, id)
	})
}

func (b *QueueBoard) Start(ctx context.Context, id int64) error {
	return b.act(ctx, id, models.ActionStart, func(ctx context.Context) error {
		return b.API.StartConsultation(ctx, id)
	})
}

// Complete hanya berhasil jika penyelesaian konsultasi sudah tercatat di server.
// Alur normal memakai CompletionDialog.
func (b *QueueBoard) Complete(ctx context.Context, id int64) error {
	return b.act(ctx, id, models.ActionComplete, func(ctx context.Context) error {
		return b.API.CompleteConsultation(ctx, id)
	})
}

func (b *QueueBoard) Cancel(ctx context.Context, id int64, reason string) error {
	return b.act(ctx, id, models.ActionCancel, func(ctx context.Context) error {
		return b.API.CancelQueue(ctx, id, models.CancelReason(reason))
	})
}

// act menjalankan pre-flight terhadap snapshot lokal, mengirim aksi, lalu selalu
// memuat ulang papan apa pun hasilnya. State lokal tidak pernah diubah secara optimistis.
func (b *QueueBoard) act(ctx context.Context, id int64, action models.Action, send func(context.Context) error) error {
	b.mu.Lock()
	if b.inFlight[id] {
		b.mu.Unlock()
		return ErrBusy
	}
	b.inFlight[id] = true
	b.mu.Unlock()

	err := b.preflight(id, action)
	if err == nil {
		err = send(ctx)
	}

	b.mu.Lock()
	delete(b.inFlight, id)
	if err != nil {
		b.state.Notice = noticeFrom(err)
	} else {
		b.state.Notice = nil
	}
	b.mu.Unlock()

	entry := b.Log.WithQueue(id).WithField("action", string(action))
	if err != nil {
		entry.WithError(err).Warn("Aksi antrian ditolak")
	} else {
		entry.Info("Aksi antrian terkirim")
	}

	_ = b.Refresh(ctx)
	return err
}

func (b *QueueBoard) preflight(id int64, action models.Action) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entry *models.QueueEntry
	for i := range b.state.Queues {
		if b.state.Queues[i].ID == id {
			entry = &b.state.Queues[i]
			break
		}
	}
	if entry == nil {
		return apperr.Conflict("stale_state", "antrian sudah berubah, papan dimuat ulang")
	}
	if _, err := models.NextStatus(entry.Status, action); err != nil {
		return err
	}
	if action == models.ActionCall {
		head, ok := models.Head(b.state.Queues)
		if !ok || head.ID != id {
			return apperr.Conflict("not_queue_head", "hanya antrian terdepan yang bisa dipanggil")
		}
	}
	return nil
}

// OpenCompletion membuka dialog penyelesaian untuk entry IN_PROGRESS. Setiap submit
// yang sampai ke server, berhasil atau ditolak, memuat ulang papan.
func (b *QueueBoard) OpenCompletion(id int64) (*CompletionDialog, error) {
	entry, ok := b.Entry(id)
	if !ok {
		return nil, apperr.Conflict("stale_state", "antrian sudah berubah, papan dimuat ulang")
	}
	return NewCompletionDialog(b.API, entry, func(ctx context.Context) {
		_ = b.Refresh(ctx)
	})
}
