package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"

	"github.com/c14220110/poliklinik-antrian/internal/obat/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

const categoryCacheKey = "obat:kategori"

type ObatService struct {
	DB    *sql.DB
	Cache *redis.Client // nil berarti tanpa cache
	TTL   time.Duration
	Log   *logger.Logger
}

func NewObatService(db *sql.DB, cache *redis.Client, ttl time.Duration, log *logger.Logger) *ObatService {
	return &ObatService{DB: db, Cache: cache, TTL: ttl, Log: log}
}

// Search mencari obat berdasarkan nama generik atau merek (prefix/contains, case-insensitive).
// Query kurang dari 2 karakter dianggap bukan pencarian dan hasilnya kosong.
func (s *ObatService) Search(ctx context.Context, q, kategori string, limit int) (models.SearchResult, error) {
	res := models.SearchResult{Medications: []models.Obat{}}
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < utils.MinQueryLen {
		return res, nil
	}
	limit = utils.ClampLimit(limit, models.DefaultSearchLimit, models.MaxSearchLimit)

	query := `
		SELECT id_obat, nama, COALESCE(merek, ''), COALESCE(kekuatan, ''), COALESCE(bentuk_sediaan, ''),
		       jenis, harga_satuan, stock, satuan, perlu_resep, is_terkontrol, COALESCE(aturan_pakai, '')
		FROM Obat
		WHERE (LOWER(nama) LIKE ? ESCAPE '!' OR LOWER(merek) LIKE ? ESCAPE '!')`
	like := utils.ContainsPattern(strings.ToLower(q))
	params := []interface{}{like, like}
	if kategori = strings.TrimSpace(kategori); kategori != "" {
		query += " AND jenis = ?"
		params = append(params, kategori)
	}
	// nama yang diawali query tampil lebih dulu
	query += " ORDER BY CASE WHEN LOWER(nama) LIKE ? ESCAPE '!' THEN 0 ELSE 1 END, nama LIMIT ?"
	params = append(params, utils.PrefixPattern(strings.ToLower(q)), limit)

	rows, err := s.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return res, apperr.Internal("db_error", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o     models.Obat
			harga float64
		)
		if err := rows.Scan(&o.ID, &o.GenericName, &o.BrandName, &o.Strength, &o.DosageForm,
			&o.Category, &harga, &o.Stock, &o.Unit, &o.RequiresPrescription, &o.IsControlled,
			&o.DosageInstructions); err != nil {
			return res, apperr.Internal("db_error", err)
		}
		o.PricePerUnit = int64(math.Round(harga))
		res.Medications = append(res.Medications, o)
	}
	if err := rows.Err(); err != nil {
		return res, apperr.Internal("db_error", err)
	}
	return res, nil
}

// Categories mengembalikan daftar kategori beserta jumlah obat. Hasil di-cache di Redis
// selama TTL; cache yang gagal dibaca atau ditulis tidak menggagalkan request.
func (s *ObatService) Categories(ctx context.Context) ([]models.CategoryCount, error) {
	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, categoryCacheKey).Bytes()
		switch {
		case err == nil:
			var cached []models.CategoryCount
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		case !errors.Is(err, redis.Nil):
			s.Log.WithComponent("obat").WithError(err).Warn("Gagal membaca cache kategori")
		}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT jenis, COUNT(*) FROM Obat
		GROUP BY jenis
		ORDER BY jenis`)
	if err != nil {
		return nil, apperr.Internal("db_error", err)
	}
	defer rows.Close()

	list := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, apperr.Internal("db_error", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("db_error", err)
	}

	if s.Cache != nil {
		if b, err := json.Marshal(list); err == nil {
			if err := s.Cache.Set(ctx, categoryCacheKey, b, s.TTL).Err(); err != nil {
				s.Log.WithComponent("obat").WithError(err).Warn("Gagal menulis cache kategori")
			}
		}
	}
	return list, nil
}
