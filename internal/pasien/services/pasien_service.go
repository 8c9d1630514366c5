package services

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/c14220110/poliklinik-antrian/internal/pasien/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type PasienService struct {
	DB *sql.DB
}

func NewPasienService(db *sql.DB) *PasienService {
	return &PasienService{DB: db}
}

// Search mencari pasien berdasarkan nama, NIK, atau no. telepon. Query kurang
// dari 2 karakter tidak dicari.
func (s *PasienService) Search(ctx context.Context, q string, limit int) ([]models.Pasien, error) {
	list := []models.Pasien{}
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < utils.MinQueryLen {
		return list, nil
	}
	limit = utils.ClampLimit(limit, models.DefaultSearchLimit, models.MaxSearchLimit)

	like := utils.ContainsPattern(strings.ToLower(q))
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.id_pasien, p.nama, p.nik, COALESCE(p.no_telp, ''), p.jenis_kelamin,
		       DATE_FORMAT(p.tanggal_lahir, '%Y-%m-%d'),
		       COALESCE((SELECT rm.id_rm FROM Rekam_Medis rm WHERE rm.id_pasien = p.id_pasien
		                 ORDER BY rm.created_at DESC LIMIT 1), '')
		FROM Pasien p
		WHERE LOWER(p.nama) LIKE ? ESCAPE '!' OR p.nik LIKE ? ESCAPE '!' OR p.no_telp LIKE ? ESCAPE '!'
		ORDER BY p.nama
		LIMIT ?`, like, like, like, limit)
	if err != nil {
		return nil, apperr.Internal("db_error", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Pasien
		if err := rows.Scan(&p.ID, &p.FullName, &p.NIK, &p.Phone, &p.Gender, &p.DateOfBirth, &p.MedicalRecID); err != nil {
			return nil, apperr.Internal("db_error", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("db_error", err)
	}
	return list, nil
}
