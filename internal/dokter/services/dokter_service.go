package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/c14220110/poliklinik-antrian/internal/dokter/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

// TokenTTL adalah masa berlaku token satu shift praktik.
const TokenTTL = 12 * time.Hour

// AllowedRoles adalah role yang boleh masuk ke dashboard antrian.
var AllowedRoles = []string{"Dokter", "Administrasi", "Apoteker"}

type DokterService struct {
	DB  *sql.DB
	Log *logger.Logger
	now func() time.Time
}

func NewDokterService(db *sql.DB, log *logger.Logger) *DokterService {
	return &DokterService{DB: db, Log: log, now: time.Now}
}

var errBadCredentials = apperr.Unauthorized("Invalid username or password")

// Login memvalidasi kredensial karyawan dan menerbitkan JWT.
func (s *DokterService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return models.LoginResponse{}, apperr.Validation("username", "credentials_required", "Username and Password are required")
	}

	var k models.Karyawan
	err := s.DB.QueryRowContext(ctx, `
		SELECT k.id_karyawan, k.nama, k.username, k.password, r.nama_role
		FROM Karyawan k
		JOIN Detail_Role_Karyawan drk ON drk.id_karyawan = k.id_karyawan
		JOIN Role r ON drk.id_role = r.id_role
		WHERE k.username = ? AND k.deleted_at IS NULL
		LIMIT 1`, req.Username).Scan(&k.ID, &k.Nama, &k.Username, &k.Password, &k.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoginResponse{}, errBadCredentials
	}
	if err != nil {
		return models.LoginResponse{}, apperr.Internal("db_error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(k.Password), []byte(req.Password)); err != nil {
		s.Log.WithComponent("auth").WithField("username", req.Username).Warn("Login gagal: password salah")
		return models.LoginResponse{}, errBadCredentials
	}
	if !roleAllowed(k.Role) {
		return models.LoginResponse{}, apperr.Unauthorized("User tidak memiliki akses ke dashboard antrian")
	}

	token, err := utils.GenerateJWTToken(k.ID, k.Nama, k.Role, k.Username, s.now().Add(TokenTTL))
	if err != nil {
		return models.LoginResponse{}, apperr.Internal("token_error", err)
	}
	s.Log.WithComponent("auth").WithField("id_karyawan", k.ID).WithField("role", k.Role).Info("Login berhasil")
	return models.LoginResponse{ID: k.ID, Nama: k.Nama, Username: k.Username, Role: k.Role, Token: token}, nil
}

func roleAllowed(role string) bool {
	for _, r := range AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
