package console

import (
	"context"
	"errors"
	"testing"
	"time"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T, api *fakeAPI) *QueueBoard {
	t.Helper()
	b := NewQueueBoard(api, "", logger.Discard())
	require.NoError(t, b.Refresh(context.Background()))
	return b
}

func statusOf(t *testing.T, b *QueueBoard, id int64) antrianModels.Status {
	t.Helper()
	e, ok := b.Entry(id)
	require.True(t, ok)
	return e.Status
}

func TestQueueBoard_EndToEnd(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)
	ctx := context.Background()

	require.NoError(t, b.Call(ctx, 1))
	e, _ := b.Entry(1)
	assert.Equal(t, antrianModels.StatusCalled, e.Status)
	require.NotNil(t, e.CalledTime)

	require.NoError(t, b.Start(ctx, 1))
	assert.Equal(t, antrianModels.StatusInProgress, statusOf(t, b, 1))

	dlg, err := b.OpenCompletion(1)
	require.NoError(t, err)
	require.NoError(t, dlg.Apply(SetDiagnosis{Value: "Pasien demam tinggi"}))
	require.NoError(t, dlg.Apply(SetTreatment{Value: "Berikan parasetamol dan istirahat"}))
	require.NoError(t, dlg.Apply(AddMedication{Medication: api.catalog[0]}))
	require.NoError(t, dlg.Apply(SetLineQuantity{Index: 0, Quantity: 10}))
	require.NoError(t, dlg.Apply(SetLineText{Index: 0, Field: LineFrequency, Value: "3x sehari"}))
	require.NoError(t, dlg.Apply(SetLineText{Index: 0, Field: LineDuration, Value: "5 hari"}))
	assert.Equal(t, int64(5000), dlg.EstimatedTotal())

	// status tidak diubah lokal sebelum server menerima
	assert.Equal(t, antrianModels.StatusInProgress, statusOf(t, b, 1))

	res, err := dlg.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.TotalAmount)
	assert.Equal(t, PhaseSuccess, dlg.Phase())

	e, _ = b.Entry(1)
	assert.Equal(t, antrianModels.StatusCompleted, e.Status)
	require.NotNil(t, e.CompletedTime)
	assert.Nil(t, b.State().Board.Current)
	assert.Equal(t, 1, b.State().Statistics.Completed)
}

func TestQueueBoard_DerivesReadModel(t *testing.T) {
	called := waiting(3, 3)
	called.Status = antrianModels.StatusCalled
	inProgress := waiting(4, 4)
	inProgress.Status = antrianModels.StatusInProgress
	api := newFakeAPI(inProgress, waiting(2, 2), called, waiting(1, 1))

	st := newBoard(t, api).State()
	require.NotNil(t, st.Board.Current)
	assert.Equal(t, int64(1), st.Board.Current.ID)
	require.NotNil(t, st.Board.InProgress)
	assert.Equal(t, int64(4), st.Board.InProgress.ID)
	require.Len(t, st.Board.Next, 1)
	assert.Equal(t, int64(2), st.Board.Next[0].ID)
	assert.Equal(t, 4, st.Statistics.Total)
}

func TestQueueBoard_CallRejectsNonHeadWithoutRequest(t *testing.T) {
	api := newFakeAPI(waiting(1, 1), waiting(2, 2))
	b := newBoard(t, api)
	gets := api.count("get")

	err := b.Call(context.Background(), 2)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 0, api.count("call"))
	assert.Equal(t, gets+1, api.count("get"), "papan tetap dimuat ulang setelah aksi gagal")

	n := b.State().Notice
	require.NotNil(t, n)
	assert.Equal(t, "not_queue_head", n.Code)
	assert.True(t, n.Retryable)
}

func TestQueueBoard_CancelInProgressRejected(t *testing.T) {
	e := waiting(1, 1)
	e.Status = antrianModels.StatusInProgress
	api := newFakeAPI(e)
	b := newBoard(t, api)

	err := b.Cancel(context.Background(), 1, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 0, api.count("cancel"))
	assert.Equal(t, antrianModels.StatusInProgress, statusOf(t, b, 1))
}

func TestQueueBoard_CancelUsesDefaultReason(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)

	require.NoError(t, b.Cancel(context.Background(), 1, "  "))
	e, _ := b.Entry(1)
	assert.Equal(t, antrianModels.StatusCancelled, e.Status)
	assert.Equal(t, antrianModels.DefaultCancelReason, e.CancelReason)
}

func TestQueueBoard_ServerRejectionKeepsState(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)
	before := b.State().Queues

	api.setErr("call", apperr.Conflict("stale_state", "antrian sudah diproses operator lain"))
	err := b.Call(context.Background(), 1)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, before, b.State().Queues)
	assert.Equal(t, "stale_state", b.State().Notice.Code)

	b.DismissNotice()
	assert.Nil(t, b.State().Notice)
}

func TestQueueBoard_RefreshFailureKeepsSnapshot(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)

	api.setErr("get", apperr.Transient("network_error", errors.New("connection refused")))
	err := b.Refresh(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindTransient))

	st := b.State()
	assert.Len(t, st.Queues, 1)
	require.NotNil(t, st.Notice)
	assert.True(t, st.Notice.Retryable)
}

func TestQueueBoard_StaleResponseDiscarded(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := NewQueueBoard(api, "", logger.Discard())

	started := make(chan struct{})
	release := make(chan struct{})
	api.setHook("get", func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	})

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-started

	api.mu.Lock()
	api.entries = append(api.entries, waiting(2, 2))
	api.mu.Unlock()
	require.NoError(t, b.Refresh(context.Background()))
	assert.Len(t, b.State().Queues, 2)

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh pertama tidak selesai")
	}
	assert.Len(t, b.State().Queues, 2, "snapshot lama tidak boleh menimpa yang lebih baru")
}

func TestQueueBoard_OnChangeAndPoller(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := NewQueueBoard(api, "", logger.Discard())
	changes := make(chan BoardState, 8)
	b.OnChange = func(s BoardState) {
		select {
		case changes <- s:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewPoller(time.Hour, b.Poll).Run(ctx)

	select {
	case s := <-changes:
		assert.Len(t, s.Queues, 1)
	case <-time.After(time.Second):
		t.Fatal("poller tidak memuat papan")
	}
}

func TestQueueBoard_OpenCompletionRequiresInProgress(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)

	_, err := b.OpenCompletion(1)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = b.OpenCompletion(99)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestQueueBoard_RejectedCompletionRefreshesBoard(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)
	ctx := context.Background()
	require.NoError(t, b.Call(ctx, 1))
	require.NoError(t, b.Start(ctx, 1))

	dlg, err := b.OpenCompletion(1)
	require.NoError(t, err)
	require.NoError(t, dlg.Apply(SetDiagnosis{Value: "Pasien demam tinggi"}))
	require.NoError(t, dlg.Apply(SetTreatment{Value: "Berikan parasetamol dan istirahat"}))

	// petugas lain membatalkan antrian di server
	api.mu.Lock()
	api.entries[0].Status = antrianModels.StatusCancelled
	api.mu.Unlock()
	api.setErr("submit", apperr.Conflict("queue_terminal", "antrian sudah dibatalkan"))

	gets := api.count("get")
	_, err = dlg.Submit(ctx)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, gets+1, api.count("get"))
	assert.Equal(t, antrianModels.StatusCancelled, statusOf(t, b, 1))
	assert.Equal(t, PhaseEditing, dlg.Phase())
}

func TestQueueBoard_LocallyInvalidCompletionSkipsRefresh(t *testing.T) {
	api := newFakeAPI(waiting(1, 1))
	b := newBoard(t, api)
	ctx := context.Background()
	require.NoError(t, b.Call(ctx, 1))
	require.NoError(t, b.Start(ctx, 1))

	dlg, err := b.OpenCompletion(1)
	require.NoError(t, err)

	gets := api.count("get")
	_, err = dlg.Submit(ctx)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, gets, api.count("get"))
	assert.Equal(t, 0, api.count("submit"))
}
