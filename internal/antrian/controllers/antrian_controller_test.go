package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/poliklinik-antrian/internal/antrian/services"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
)

func newController(t *testing.T) (*AntrianController, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAntrianController(services.NewAntrianService(db, logger.Discard(), 15)), mock
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetActiveQueues_IncludesBoard(t *testing.T) {
	ac, mock := newController(t)
	checkIn := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	cols := []string{"id_antrian", "nomor_antrian", "tanggal", "status", "posisi",
		"is_prioritas", "check_in_time", "called_time", "completed_time", "catatan", "alasan_batal",
		"id_pasien", "nama", "no_telp", "nik", "jenis_kelamin", "tanggal_lahir",
		"id_karyawan", "nama_dokter", "spesialisasi", "jenis_konsultasi", "severity", "gejala"}
	rows := sqlmock.NewRows(cols)
	statuses := []string{"WAITING", "WAITING", "CALLED", "IN_PROGRESS"}
	for i, st := range statuses {
		rows.AddRow(i+1, "A00"+string(rune('1'+i)), "2026-03-02", st, i+1, false, checkIn, nil, nil, "", "",
			i+10, "Pasien", "", "nik", "L", "1990-01-01", nil, "", "", "", "", "")
	}
	mock.ExpectQuery("FROM Antrian a").WithArgs("2026-03-02").WillReturnRows(rows)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/antrian/aktif?tanggal=2026-03-02", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ac.GetActiveQueues(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Queues []json.RawMessage `json:"queues"`
		Board  struct {
			Current    struct{ ID int64 } `json:"current"`
			InProgress struct{ ID int64 } `json:"in_progress"`
			Next       []struct{ ID int64 } `json:"next"`
		} `json:"board"`
		Statistics struct {
			Total int `json:"total"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Len(t, data.Queues, 4)
	assert.Equal(t, 4, data.Statistics.Total)
	assert.Equal(t, int64(1), data.Board.Current.ID)
	assert.Equal(t, int64(4), data.Board.InProgress.ID)
	require.Len(t, data.Board.Next, 1)
	assert.Equal(t, int64(2), data.Board.Next[0].ID)
}

func TestCallPatient_MissingID(t *testing.T) {
	ac, _ := newController(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/antrian/panggil", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ac.CallPatient(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec).Message, "id_antrian")
}

func TestStartConsultation_ConflictMapsTo409(t *testing.T) {
	ac, mock := newController(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(5)).WillReturnRows(
		sqlmock.NewRows([]string{"id_antrian", "nomor_antrian", "tanggal", "status", "posisi",
			"is_prioritas", "check_in_time", "called_time", "completed_time", "alasan_batal", "id_pasien"}).
			AddRow(5, "A005", "2026-03-02", "CANCELLED", 5, false, time.Now(), nil, nil, "pulang", 10))
	mock.ExpectRollback()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/antrian/mulai?id_antrian=5", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ac.StartConsultation(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "queue_terminal", data["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelQueue_BindsReason(t *testing.T) {
	ac, mock := newController(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(2)).WillReturnRows(
		sqlmock.NewRows([]string{"id_antrian", "nomor_antrian", "tanggal", "status", "posisi",
			"is_prioritas", "check_in_time", "called_time", "completed_time", "alasan_batal", "id_pasien"}).
			AddRow(2, "A002", "2026-03-02", "WAITING", 2, false, time.Now().Add(-time.Hour), nil, nil, "", 11))
	mock.ExpectExec("UPDATE Antrian").
		WithArgs("CANCELLED", nil, nil, "pasien pulang", int64(2), "WAITING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/antrian/batal?id_antrian=2", strings.NewReader(`{"reason":"pasien pulang"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, ac.CancelQueue(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
