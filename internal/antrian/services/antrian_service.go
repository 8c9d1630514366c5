package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/monitoring"
)

type AntrianService struct {
	DB                *sql.DB
	Log               *logger.Logger
	AvgConsultMinutes int
	now               func() time.Time
}

func NewAntrianService(db *sql.DB, log *logger.Logger, avgConsultMinutes int) *AntrianService {
	return &AntrianService{DB: db, Log: log, AvgConsultMinutes: avgConsultMinutes, now: time.Now}
}

const selectQueueSQL = `
	SELECT a.id_antrian, a.nomor_antrian, DATE_FORMAT(a.tanggal, '%Y-%m-%d'), a.status, a.posisi,
	       a.is_prioritas, a.check_in_time, a.called_time, a.completed_time,
	       COALESCE(a.catatan, ''), COALESCE(a.alasan_batal, ''),
	       p.id_pasien, p.nama, COALESCE(p.no_telp, ''), p.nik, p.jenis_kelamin,
	       DATE_FORMAT(p.tanggal_lahir, '%Y-%m-%d'),
	       a.id_karyawan, COALESCE(k.nama, ''), COALESCE(k.spesialisasi, ''),
	       COALESCE(a.jenis_konsultasi, ''), COALESCE(a.severity, ''), COALESCE(a.gejala, '')
	FROM Antrian a
	JOIN Pasien p ON a.id_pasien = p.id_pasien
	LEFT JOIN Karyawan k ON a.id_karyawan = k.id_karyawan`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueue(r rowScanner) (models.QueueEntry, error) {
	var (
		e                          models.QueueEntry
		status                     string
		calledTime, completedTime  sql.NullTime
		idDokter                   sql.NullInt64
		namaDokter, spesialisasi   string
		jenis, severity, gejalaCSV string
	)
	err := r.Scan(
		&e.ID, &e.QueueNumber, &e.QueueDate, &status, &e.Position,
		&e.IsPriority, &e.CheckInTime, &calledTime, &completedTime,
		&e.Notes, &e.CancelReason,
		&e.User.ID, &e.User.FullName, &e.User.Phone, &e.User.NIK, &e.User.Gender,
		&e.User.DateOfBirth,
		&idDokter, &namaDokter, &spesialisasi,
		&jenis, &severity, &gejalaCSV,
	)
	if err != nil {
		return e, err
	}
	e.Status = models.Status(status)
	if calledTime.Valid {
		t := calledTime.Time
		e.CalledTime = &t
	}
	if completedTime.Valid {
		t := completedTime.Time
		e.CompletedTime = &t
	}
	if idDokter.Valid {
		e.Doctor = &models.DoctorSnapshot{ID: idDokter.Int64, Name: namaDokter, Specialty: spesialisasi}
	}
	if jenis != "" || severity != "" || gejalaCSV != "" {
		e.Consultation = &models.ConsultationInfo{
			Type:     jenis,
			Severity: models.Severity(severity),
			Symptoms: splitSymptoms(gejalaCSV),
		}
	}
	return e, nil
}

func splitSymptoms(csv string) []string {
	out := []string{}
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetActiveQueues mengambil seluruh antrian pada tanggal tersebut (format YYYY-MM-DD).
// Tanggal kosong berarti hari ini. Estimasi waktu tunggu dihitung saat dibaca.
func (s *AntrianService) GetActiveQueues(ctx context.Context, tanggal string) (models.ActiveQueues, error) {
	if tanggal == "" {
		tanggal = s.now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", tanggal); err != nil {
		return models.ActiveQueues{}, apperr.Validation("tanggal", "invalid_date", "format tanggal harus YYYY-MM-DD")
	}

	rows, err := s.DB.QueryContext(ctx, selectQueueSQL+`
	WHERE a.tanggal = ?
	ORDER BY a.posisi ASC, a.check_in_time ASC, a.id_antrian ASC`, tanggal)
	if err != nil {
		return models.ActiveQueues{}, apperr.Internal("db_error", err)
	}
	defer rows.Close()

	entries := []models.QueueEntry{}
	for rows.Next() {
		e, err := scanQueue(rows)
		if err != nil {
			return models.ActiveQueues{}, apperr.Internal("db_error", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return models.ActiveQueues{}, apperr.Internal("db_error", err)
	}

	entries = models.EstimateWaits(entries, s.AvgConsultMinutes)
	return models.ActiveQueues{Queues: entries, Statistics: models.CountStatistics(entries)}, nil
}

// GetQueue mengambil satu antrian berdasarkan id.
func (s *AntrianService) GetQueue(ctx context.Context, idAntrian int64) (models.QueueEntry, error) {
	row := s.DB.QueryRowContext(ctx, selectQueueSQL+`
	WHERE a.id_antrian = ?`, idAntrian)
	e, err := scanQueue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, apperr.NotFound("queue_not_found", "antrian tidak ditemukan")
	}
	if err != nil {
		return e, apperr.Internal("db_error", err)
	}
	return e, nil
}

func (s *AntrianService) CallPatient(ctx context.Context, idAntrian int64) (models.QueueEntry, error) {
	return s.transition(ctx, idAntrian, models.ActionCall, "", nil)
}

func (s *AntrianService) StartConsultation(ctx context.Context, idAntrian int64) (models.QueueEntry, error) {
	return s.transition(ctx, idAntrian, models.ActionStart, "", nil)
}

// CompleteConsultation tanpa agregat hanya berhasil jika data konsultasi untuk antrian
// ini sudah tersimpan sebelumnya.
func (s *AntrianService) CompleteConsultation(ctx context.Context, idAntrian int64) (models.QueueEntry, error) {
	return s.transition(ctx, idAntrian, models.ActionComplete, "", func(tx *sql.Tx, e models.QueueEntry) error {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM Konsultasi WHERE id_antrian = ?`, e.ID).Scan(&n)
		if err != nil {
			return apperr.Internal("db_error", err)
		}
		if n == 0 {
			return apperr.Conflict("completion_missing", "data konsultasi belum disimpan, selesaikan melalui form konsultasi")
		}
		return nil
	})
}

func (s *AntrianService) CancelQueue(ctx context.Context, idAntrian int64, reason string) (models.QueueEntry, error) {
	return s.transition(ctx, idAntrian, models.ActionCancel, reason, nil)
}

// transition menjalankan satu aksi dalam transaksi: kunci baris, validasi, simpan.
func (s *AntrianService) transition(ctx context.Context, idAntrian int64, action models.Action, reason string,
	precheck func(tx *sql.Tx, e models.QueueEntry) error) (out models.QueueEntry, err error) {
	defer func() { monitoring.RecordQueueTransition(string(action), err) }()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, apperr.Internal("db_error", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	before, err := LockEntry(ctx, tx, idAntrian)
	if err != nil {
		return out, err
	}
	after, err := models.Apply(before, action, s.now(), reason)
	if err != nil {
		s.Log.WithQueue(idAntrian).WithField("action", action).WithField("status", before.Status).
			Warn("Transisi antrian ditolak")
		return out, err
	}
	if action == models.ActionCall {
		if err = ensureHead(ctx, tx, before); err != nil {
			return out, err
		}
	}
	if precheck != nil {
		if err = precheck(tx, before); err != nil {
			return out, err
		}
	}
	if err = SaveTransition(ctx, tx, before, after); err != nil {
		return out, err
	}
	if err = tx.Commit(); err != nil {
		return out, apperr.Internal("db_error", err)
	}

	s.Log.WithQueue(idAntrian).WithField("action", action).WithField("from", before.Status).
		WithField("to", after.Status).Info("Status antrian diperbarui")
	return after, nil
}

// LockEntry membaca kolom antrian yang dibutuhkan state machine dengan row lock.
func LockEntry(ctx context.Context, tx *sql.Tx, idAntrian int64) (models.QueueEntry, error) {
	var (
		e                         models.QueueEntry
		status                    string
		calledTime, completedTime sql.NullTime
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id_antrian, nomor_antrian, DATE_FORMAT(tanggal, '%Y-%m-%d'), status, posisi,
		       is_prioritas, check_in_time, called_time, completed_time, COALESCE(alasan_batal, ''),
		       id_pasien
		FROM Antrian WHERE id_antrian = ? FOR UPDATE`, idAntrian).Scan(
		&e.ID, &e.QueueNumber, &e.QueueDate, &status, &e.Position,
		&e.IsPriority, &e.CheckInTime, &calledTime, &completedTime, &e.CancelReason,
		&e.User.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return e, apperr.NotFound("queue_not_found", "antrian tidak ditemukan")
	}
	if err != nil {
		return e, apperr.Internal("db_error", err)
	}
	e.Status = models.Status(status)
	if calledTime.Valid {
		t := calledTime.Time
		e.CalledTime = &t
	}
	if completedTime.Valid {
		t := completedTime.Time
		e.CompletedTime = &t
	}
	return e, nil
}

// ensureHead: hanya antrian WAITING terdepan pada tanggal yang sama yang boleh dipanggil.
func ensureHead(ctx context.Context, tx *sql.Tx, e models.QueueEntry) error {
	var headID int64
	err := tx.QueryRowContext(ctx, `
		SELECT id_antrian FROM Antrian
		WHERE tanggal = ? AND status = 'WAITING'
		ORDER BY posisi ASC, check_in_time ASC, id_antrian ASC
		LIMIT 1`, e.QueueDate).Scan(&headID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("db_error", err)
	}
	if headID != e.ID {
		return apperr.Conflict("not_queue_head", "hanya antrian terdepan yang boleh dipanggil")
	}
	return nil
}

// SaveTransition menulis status baru dengan guard status lama; jika antrian sudah
// diubah operator lain, hasilnya Conflict.
func SaveTransition(ctx context.Context, tx *sql.Tx, before, after models.QueueEntry) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE Antrian
		SET status = ?, called_time = ?, completed_time = ?, alasan_batal = ?
		WHERE id_antrian = ? AND status = ?`,
		string(after.Status), nullTime(after.CalledTime), nullTime(after.CompletedTime),
		nullString(after.CancelReason), after.ID, string(before.Status))
	if err != nil {
		return apperr.Internal("db_error", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("db_error", err)
	}
	if affected == 0 {
		return apperr.Conflict("stale_state", "antrian sudah diubah oleh petugas lain, muat ulang data")
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
