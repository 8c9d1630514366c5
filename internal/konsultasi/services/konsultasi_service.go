package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	antrianServices "github.com/c14220110/poliklinik-antrian/internal/antrian/services"
	"github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/monitoring"
)

type KonsultasiService struct {
	DB                    *sql.DB
	Log                   *logger.Logger
	PrescriptionValidDays int
	now                   func() time.Time
	newCode               func(time.Time) string
}

func NewKonsultasiService(db *sql.DB, log *logger.Logger, prescriptionValidDays int) *KonsultasiService {
	return &KonsultasiService{
		DB:                    db,
		Log:                   log,
		PrescriptionValidDays: prescriptionValidDays,
		now:                   time.Now,
		newCode:               NewPrescriptionCode,
	}
}

// NewPrescriptionCode membuat kode resep, mis. RX-20260302-1A2B3C4D.
func NewPrescriptionCode(t time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("RX-%s-%s", t.Format("20060102"), id[:8])
}

// SubmitCompletion menyimpan seluruh agregat penyelesaian dalam satu transaksi:
// konsultasi, resep digital (jika ada baris obat), order lab, pengingat kontrol,
// lalu status antrian menjadi COMPLETED. Gagal di langkah mana pun berarti tidak ada yang tersimpan.
func (s *KonsultasiService) SubmitCompletion(ctx context.Context, idAntrian, idKaryawan int64,
	req models.ConsultationCompletion) (res models.CompletionResult, err error) {
	defer func() { monitoring.RecordCompletion(err) }()

	if req.QueueID != 0 && req.QueueID != idAntrian {
		return res, apperr.Validation("queue_id", "queue_mismatch", "queue_id tidak sesuai dengan id_antrian")
	}
	req = req.Normalize()
	req.QueueID = idAntrian
	if err = req.Validate(); err != nil {
		return res, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, apperr.Internal("db_error", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	before, err := antrianServices.LockEntry(ctx, tx, idAntrian)
	if err != nil {
		return res, err
	}
	now := s.now()
	after, err := antrianModels.Apply(before, antrianModels.ActionComplete, now, "")
	if err != nil {
		return res, err
	}
	completedAt := *after.CompletedTime

	lines, err := priceLines(ctx, tx, req.Prescriptions)
	if err != nil {
		return res, err
	}

	idKonsultasi, err := insertKonsultasi(ctx, tx, idAntrian, idKaryawan, req, completedAt)
	if err != nil {
		return res, err
	}
	res = models.CompletionResult{ConsultationID: idKonsultasi, QueueID: idAntrian}

	if len(lines) > 0 {
		code := s.newCode(completedAt)
		total := resepModels.EstimatedTotal(lines)
		expires := completedAt.AddDate(0, 0, s.PrescriptionValidDays)
		var idResep int64
		idResep, err = insertResep(ctx, tx, code, idAntrian, before.User.ID, idKaryawan, total, expires, completedAt, lines)
		if err != nil {
			return models.CompletionResult{}, err
		}
		res.PrescriptionID = &idResep
		res.PrescriptionCode = code
		res.TotalAmount = total
	}

	for _, lt := range req.LabTests {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO Lab_Test (id_konsultasi, nama_tes, jenis_tes, kategori, catatan, is_kritis)
			VALUES (?,?,?,?,?,?)`,
			idKonsultasi, lt.TestName, string(lt.TestType), string(lt.Category), lt.Notes, lt.IsCritical); err != nil {
			return models.CompletionResult{}, apperr.Internal("db_error", err)
		}
	}

	if req.FollowUpDays != nil {
		date := completedAt.AddDate(0, 0, *req.FollowUpDays).Format("2006-01-02")
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO Pengingat_Kontrol (id_konsultasi, id_pasien, tanggal_kontrol, created_at)
			VALUES (?,?,?,?)`,
			idKonsultasi, before.User.ID, date, completedAt); err != nil {
			return models.CompletionResult{}, apperr.Internal("db_error", err)
		}
		res.FollowUpDate = &date
	}

	if err = antrianServices.SaveTransition(ctx, tx, before, after); err != nil {
		return models.CompletionResult{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.CompletionResult{}, apperr.Internal("db_error", err)
	}

	s.Log.WithQueue(idAntrian).WithField("id_konsultasi", idKonsultasi).
		WithField("resep", res.PrescriptionCode).WithField("lab_tests", len(req.LabTests)).
		Info("Konsultasi selesai")
	return res, nil
}

// priceLines mengambil ulang harga satuan dari katalog untuk baris yang berasal dari katalog.
// Harga dari klien hanya dipakai untuk obat manual.
func priceLines(ctx context.Context, tx *sql.Tx, lines []resepModels.PrescriptionLine) ([]resepModels.PrescriptionLine, error) {
	out := make([]resepModels.PrescriptionLine, len(lines))
	for i, l := range lines {
		if l.MedicationID != nil {
			var (
				nama  string
				harga float64
			)
			err := tx.QueryRowContext(ctx, `SELECT nama, harga_satuan FROM Obat WHERE id_obat = ?`, *l.MedicationID).
				Scan(&nama, &harga)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.Validation(fmt.Sprintf("prescriptions[%d].medication_id", i),
					"medication_not_found", fmt.Sprintf("obat %s tidak ada di katalog", l.MedicationName))
			}
			if err != nil {
				return nil, apperr.Internal("db_error", err)
			}
			l.Price = int64(math.Round(harga))
			if l.MedicationName == "" {
				l.MedicationName = nama
			}
		}
		out[i] = l
	}
	return out, nil
}

func insertKonsultasi(ctx context.Context, tx *sql.Tx, idAntrian, idKaryawan int64,
	req models.ConsultationCompletion, at time.Time) (int64, error) {
	var vital sql.NullString
	if req.VitalSigns != nil {
		b, err := json.Marshal(req.VitalSigns)
		if err != nil {
			return 0, apperr.Internal("encode_error", err)
		}
		vital = sql.NullString{String: string(b), Valid: true}
	}
	var followUp sql.NullInt64
	if req.FollowUpDays != nil {
		followUp = sql.NullInt64{Int64: int64(*req.FollowUpDays), Valid: true}
	}

	r, err := tx.ExecContext(ctx, `
		INSERT INTO Konsultasi (id_antrian, id_karyawan, diagnosis, tindakan, catatan, tanda_vital, follow_up_days, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		idAntrian, idKaryawan, req.Diagnosis, req.Treatment, req.Notes, vital, followUp, at)
	if err != nil {
		return 0, apperr.Internal("db_error", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, apperr.Internal("db_error", err)
	}
	return id, nil
}

func insertResep(ctx context.Context, tx *sql.Tx, code string, idAntrian, idPasien, idKaryawan, total int64,
	expires, at time.Time, lines []resepModels.PrescriptionLine) (int64, error) {
	r, err := tx.ExecContext(ctx, `
		INSERT INTO E_Resep (kode_resep, id_antrian, id_pasien, id_karyawan, total_harga, status_pembayaran, expires_at, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		code, idAntrian, idPasien, idKaryawan, total, string(resepModels.PaymentPending), expires, at)
	if err != nil {
		return 0, apperr.Internal("db_error", err)
	}
	idResep, err := r.LastInsertId()
	if err != nil {
		return 0, apperr.Internal("db_error", err)
	}

	for _, l := range lines {
		var idObat sql.NullInt64
		if l.MedicationID != nil {
			idObat = sql.NullInt64{Int64: *l.MedicationID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO Resep_Item (id_resep, id_obat, nama_obat, dosis, frekuensi, durasi, jumlah, harga_satuan, instruksi, catatan)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			idResep, idObat, l.MedicationName, l.Dosage, l.Frequency, l.Duration,
			l.Quantity, l.Price, l.Instructions, l.Notes); err != nil {
			return 0, apperr.Internal("db_error", err)
		}
	}
	return idResep, nil
}
