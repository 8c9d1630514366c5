package routes

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/c14220110/poliklinik-antrian/config"
	antrianControllers "github.com/c14220110/poliklinik-antrian/internal/antrian/controllers"
	antrianServices "github.com/c14220110/poliklinik-antrian/internal/antrian/services"
	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	dokterControllers "github.com/c14220110/poliklinik-antrian/internal/dokter/controllers"
	dokterServices "github.com/c14220110/poliklinik-antrian/internal/dokter/services"
	konsultasiControllers "github.com/c14220110/poliklinik-antrian/internal/konsultasi/controllers"
	konsultasiServices "github.com/c14220110/poliklinik-antrian/internal/konsultasi/services"
	obatControllers "github.com/c14220110/poliklinik-antrian/internal/obat/controllers"
	obatServices "github.com/c14220110/poliklinik-antrian/internal/obat/services"
	pasienControllers "github.com/c14220110/poliklinik-antrian/internal/pasien/controllers"
	pasienServices "github.com/c14220110/poliklinik-antrian/internal/pasien/services"
	resepControllers "github.com/c14220110/poliklinik-antrian/internal/resep/controllers"
	resepServices "github.com/c14220110/poliklinik-antrian/internal/resep/services"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
)

// Init menginisialisasi semua routes menggunakan Echo framework.
// rdb boleh nil (cache kategori obat dimatikan). limiter dipasang di endpoint pencarian.
func Init(e *echo.Echo, db *sql.DB, rdb *redis.Client, cfg *config.Config, log *logger.Logger) *middlewares.IPRateLimiter {
	// Inisialisasi service
	antrianService := antrianServices.NewAntrianService(db, log, cfg.AvgConsultMinutes)
	konsultasiService := konsultasiServices.NewKonsultasiService(db, log, cfg.PrescriptionValidDays)
	obatService := obatServices.NewObatService(db, rdb, cfg.CategoryCacheTTL, log)
	resepService := resepServices.NewResepService(db, log)
	pasienService := pasienServices.NewPasienService(db)
	dokterService := dokterServices.NewDokterService(db, log)

	// Inisialisasi controller
	antrianController := antrianControllers.NewAntrianController(antrianService)
	konsultasiController := konsultasiControllers.NewKonsultasiController(konsultasiService)
	obatController := obatControllers.NewObatController(obatService)
	resepController := resepControllers.NewResepController(resepService)
	pasienController := pasienControllers.NewPasienController(pasienService)
	dokterController := dokterControllers.NewDokterController(dokterService)

	limiter := middlewares.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	jwt := middlewares.JWTMiddleware()

	api := e.Group("/api")

	// **Grup Dokter**
	dokter := api.Group("/dokter")
	dokter.POST("/login", dokterController.Login) // Tidak pakai JWT

	// **Grup Antrian**
	antrian := api.Group("/antrian", jwt)
	antrian.GET("/aktif", antrianController.GetActiveQueues)
	antrian.PUT("/panggil", antrianController.CallPatient, middlewares.RequireRole(middlewares.RoleDokter, middlewares.RoleAdmin))
	antrian.PUT("/mulai", antrianController.StartConsultation, middlewares.RequireRole(middlewares.RoleDokter))
	antrian.PUT("/selesai", antrianController.CompleteConsultation, middlewares.RequireRole(middlewares.RoleDokter))
	antrian.PUT("/batal", antrianController.CancelQueue, middlewares.RequireRole(middlewares.RoleDokter, middlewares.RoleAdmin))
	antrian.POST("/konsultasi", konsultasiController.SubmitCompletion, middlewares.RequireRole(middlewares.RoleDokter))

	// **Grup Obat**
	obat := api.Group("/obat", jwt)
	obat.GET("/cari", obatController.Search, middlewares.RateLimitMiddleware(limiter))
	obat.GET("/kategori", obatController.Categories)

	// **Grup Pasien**
	pasien := api.Group("/pasien", jwt)
	pasien.GET("/cari", pasienController.Search, middlewares.RateLimitMiddleware(limiter))

	// **Grup Resep**
	resep := api.Group("/resep", jwt)
	resep.GET("", resepController.GetPrescription)
	resep.PUT("/pembayaran", resepController.UpdatePayment, middlewares.RequireRole(middlewares.RoleApoteker, middlewares.RoleAdmin))
	resep.PUT("/serahkan", resepController.Dispense, middlewares.RequireRole(middlewares.RoleApoteker))

	return limiter
}
