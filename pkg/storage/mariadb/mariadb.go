package mariadb

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	_ "github.com/go-sql-driver/mysql"
)

var (
	db   *sql.DB
	once sync.Once
)

// DSN membentuk data source name dari config.
// Format: username:password@tcp(host:port)/dbname?parseTime=true&loc=Asia%2FJakarta&clientFoundRows=true
// clientFoundRows membuat RowsAffected menghitung baris yang cocok, bukan yang berubah,
// sehingga UPDATE dengan nilai sama tidak terbaca sebagai konflik.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Asia%%2FJakarta&clientFoundRows=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// Connect membuka koneksi ke database MariaDB.
// Semua kredensial diambil dari .env melalui config.go.
func Connect(log *logger.Logger) *sql.DB {
	once.Do(func() {
		cfg := config.LoadConfig()

		var err error
		db, err = sql.Open("mysql", DSN(cfg))
		if err != nil {
			log.Fatalf("Gagal membuka koneksi ke database: %v", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = db.Ping(); err != nil {
			log.Fatalf("Gagal melakukan ping ke database: %v", err)
		}

		log.Info("Berhasil terhubung ke MariaDB.")
	})

	return db
}
