package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/c14220110/poliklinik-antrian/internal/dokter/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin_Success(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "rahasia-test")
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM Karyawan k").WithArgs("sari").
		WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username", "password", "nama_role"}).
			AddRow(7, "dr. Sari", "sari", hashed(t, "rahasia"), "Dokter"))

	svc := NewDokterService(db, logger.Discard())
	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "sari", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, "Dokter", res.Role)

	claims, err := utils.ValidateJWTToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.IDKaryawan)
	assert.Equal(t, "dr. Sari", claims.Nama)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM Karyawan k").WithArgs("sari").
		WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username", "password", "nama_role"}).
			AddRow(7, "dr. Sari", "sari", hashed(t, "rahasia"), "Dokter"))

	svc := NewDokterService(db, logger.Discard())
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "sari", Password: "salah"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestLogin_RoleNotAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM Karyawan k").WithArgs("budi").
		WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username", "password", "nama_role"}).
			AddRow(8, "Budi", "budi", hashed(t, "rahasia"), "Suster"))

	svc := NewDokterService(db, logger.Discard())
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "budi", Password: "rahasia"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestLogin_MissingFields(t *testing.T) {
	svc := NewDokterService(nil, logger.Discard())
	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "sari"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
