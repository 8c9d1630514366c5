package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/monitoring"
)

type ResepService struct {
	DB  *sql.DB
	Log *logger.Logger
	now func() time.Time
}

func NewResepService(db *sql.DB, log *logger.Logger) *ResepService {
	return &ResepService{DB: db, Log: log, now: time.Now}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

const selectResepSQL = `
	SELECT r.id_resep, r.kode_resep, r.id_antrian, r.id_pasien,
	       p.nama, COALESCE(p.no_telp, ''), p.nik, p.jenis_kelamin, DATE_FORMAT(p.tanggal_lahir, '%Y-%m-%d'),
	       r.id_karyawan, COALESCE(k.nama, ''), COALESCE(k.spesialisasi, ''),
	       r.total_harga, r.status_pembayaran, COALESCE(r.metode_pembayaran, ''), COALESCE(r.catatan_apotek, ''),
	       r.is_diserahkan, r.diserahkan_at, COALESCE(r.diserahkan_oleh, ''), r.expires_at, r.created_at
	FROM E_Resep r
	JOIN Pasien p ON r.id_pasien = p.id_pasien
	LEFT JOIN Karyawan k ON r.id_karyawan = k.id_karyawan
	WHERE r.id_resep = ?`

func loadPrescription(ctx context.Context, q querier, idResep int64, lock bool) (models.Prescription, error) {
	query := selectResepSQL
	if lock {
		query += " FOR UPDATE"
	}

	var (
		p           models.Prescription
		idAntrian   sql.NullInt64
		idDokter    sql.NullInt64
		namaDokter  string
		spesialis   string
		status      string
		method      string
		total       float64
		dispensedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, idResep).Scan(
		&p.ID, &p.PrescriptionCode, &idAntrian, &p.UserID,
		&p.Patient.FullName, &p.Patient.Phone, &p.Patient.NIK, &p.Patient.Gender, &p.Patient.DateOfBirth,
		&idDokter, &namaDokter, &spesialis,
		&total, &status, &method, &p.PharmacyNotes,
		&p.IsDispensed, &dispensedAt, &p.DispensedBy, &p.ExpiresAt, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.NotFound("prescription_not_found", "resep tidak ditemukan")
	}
	if err != nil {
		return p, apperr.Internal("db_error", err)
	}
	p.Patient.ID = p.UserID
	p.TotalAmount = int64(math.Round(total))
	p.PaymentStatus = models.PaymentStatus(status)
	p.PaymentMethod = models.PaymentMethod(method)
	if idAntrian.Valid {
		id := idAntrian.Int64
		p.QueueID = &id
	}
	if idDokter.Valid {
		p.Doctor = &antrianModels.DoctorSnapshot{ID: idDokter.Int64, Name: namaDokter, Specialty: spesialis}
	}
	if dispensedAt.Valid {
		t := dispensedAt.Time
		p.DispensedAt = &t
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id_obat, nama_obat, COALESCE(dosis, ''), COALESCE(frekuensi, ''), COALESCE(durasi, ''),
		       jumlah, harga_satuan, COALESCE(instruksi, ''), COALESCE(catatan, '')
		FROM Resep_Item WHERE id_resep = ? ORDER BY id_item`, idResep)
	if err != nil {
		return p, apperr.Internal("db_error", err)
	}
	defer rows.Close()

	p.Medications = []models.PrescriptionLine{}
	for rows.Next() {
		var (
			l      models.PrescriptionLine
			idObat sql.NullInt64
			harga  float64
		)
		if err := rows.Scan(&idObat, &l.MedicationName, &l.Dosage, &l.Frequency, &l.Duration,
			&l.Quantity, &harga, &l.Instructions, &l.Notes); err != nil {
			return p, apperr.Internal("db_error", err)
		}
		if idObat.Valid {
			id := idObat.Int64
			l.MedicationID = &id
		}
		l.Price = int64(math.Round(harga))
		p.Medications = append(p.Medications, l)
	}
	if err := rows.Err(); err != nil {
		return p, apperr.Internal("db_error", err)
	}
	return p, nil
}

func (s *ResepService) GetPrescription(ctx context.Context, idResep int64) (models.Prescription, error) {
	return loadPrescription(ctx, s.DB, idResep, false)
}

// UpdatePayment mengubah status pembayaran. Boleh berulang selama resep belum
// kedaluwarsa dan belum diserahkan.
func (s *ResepService) UpdatePayment(ctx context.Context, idResep int64, upd models.PaymentUpdate) (p models.Prescription, err error) {
	defer func() { monitoring.RecordPrescriptionAction("payment", err) }()

	if err = upd.Validate(); err != nil {
		return p, err
	}
	err = s.withLocked(ctx, idResep, func(tx *sql.Tx, cur *models.Prescription) error {
		if err := cur.CanUpdatePayment(s.now()); err != nil {
			return err
		}
		// Baris sudah terkunci dan sudah dicek, jadi 0 baris berubah berarti nilainya sama.
		if err := execLocked(ctx, tx, `
			UPDATE E_Resep SET status_pembayaran = ?, metode_pembayaran = ?, catatan_apotek = ?
			WHERE id_resep = ? AND is_diserahkan = FALSE`,
			string(upd.PaymentStatus), string(upd.PaymentMethod), upd.PharmacyNotes, idResep); err != nil {
			return err
		}
		cur.PaymentStatus = upd.PaymentStatus
		cur.PaymentMethod = upd.PaymentMethod
		cur.PharmacyNotes = upd.PharmacyNotes
		return nil
	}, &p)
	if err != nil {
		return p, err
	}
	s.Log.WithComponent("resep").WithField("id_resep", idResep).
		WithField("payment_status", upd.PaymentStatus).Info("Pembayaran resep diperbarui")
	return p, nil
}

// Dispense menyerahkan obat. Hanya sekali, dan hanya untuk resep yang sudah dibayar
// dan belum kedaluwarsa.
func (s *ResepService) Dispense(ctx context.Context, idResep int64, req models.DispenseRequest, dispensedBy string) (p models.Prescription, err error) {
	defer func() { monitoring.RecordPrescriptionAction("dispense", err) }()

	if err = req.Validate(); err != nil {
		return p, err
	}
	err = s.withLocked(ctx, idResep, func(tx *sql.Tx, cur *models.Prescription) error {
		now := s.now()
		if err := cur.CanDispense(now); err != nil {
			return err
		}
		notes := cur.PharmacyNotes
		if req.PharmacyNotes != "" {
			notes = req.PharmacyNotes
		}
		if err := execOne(ctx, tx, `
			UPDATE E_Resep SET is_diserahkan = TRUE, diserahkan_at = ?, diserahkan_oleh = ?, catatan_apotek = ?
			WHERE id_resep = ? AND is_diserahkan = FALSE AND status_pembayaran = 'PAID'`,
			now, dispensedBy, notes, idResep); err != nil {
			return err
		}
		cur.IsDispensed = true
		cur.DispensedAt = &now
		cur.DispensedBy = dispensedBy
		cur.PharmacyNotes = notes
		return nil
	}, &p)
	if err != nil {
		return p, err
	}
	s.Log.WithComponent("resep").WithField("id_resep", idResep).
		WithField("dispensed_by", dispensedBy).Info("Resep diserahkan")
	return p, nil
}

func (s *ResepService) withLocked(ctx context.Context, idResep int64,
	fn func(tx *sql.Tx, cur *models.Prescription) error, out *models.Prescription) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("db_error", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	cur, err := loadPrescription(ctx, tx, idResep, true)
	if err != nil {
		return err
	}
	if err = fn(tx, &cur); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperr.Internal("db_error", err)
	}
	*out = cur
	return nil
}

func execLocked(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperr.Internal("db_error", err)
	}
	return nil
}

func execOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Internal("db_error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("db_error", err)
	}
	if n == 0 {
		return apperr.Conflict("stale_state", "resep sudah diubah oleh petugas lain, muat ulang data")
	}
	return nil
}
