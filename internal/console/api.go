// Package console adalah inti sisi dashboard: klien API, debounce pencarian, poller papan
// antrian, dialog penyelesaian konsultasi, dan aksi resep. Semua state disimpan dalam struct
// eksplisit supaya bisa diuji tanpa UI.
package console

import (
	"context"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	konsultasiModels "github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	obatModels "github.com/c14220110/poliklinik-antrian/internal/obat/models"
	pasienModels "github.com/c14220110/poliklinik-antrian/internal/pasien/models"
	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
)

// ClinicAPI adalah kontrak layanan yang dipakai console. Error yang dikembalikan
// selalu *apperr.Error sehingga pemanggil bisa membedakan validasi, konflik, dan gangguan jaringan.
type ClinicAPI interface {
	GetActiveQueues(ctx context.Context, date string) (antrianModels.ActiveQueues, error)
	CallPatient(ctx context.Context, queueID int64) error
	StartConsultation(ctx context.Context, queueID int64) error
	CompleteConsultation(ctx context.Context, queueID int64) error
	CancelQueue(ctx context.Context, queueID int64, reason string) error
	SubmitConsultationCompletion(ctx context.Context, queueID int64, c konsultasiModels.ConsultationCompletion) (konsultasiModels.CompletionResult, error)

	SearchMedications(ctx context.Context, query, category string, limit int) ([]obatModels.Obat, error)
	GetMedicationCategories(ctx context.Context) ([]obatModels.CategoryCount, error)
	SearchPatients(ctx context.Context, query string, limit int) ([]pasienModels.Pasien, error)

	GetPrescription(ctx context.Context, id int64) (resepModels.Prescription, error)
	UpdatePrescriptionPayment(ctx context.Context, id int64, upd resepModels.PaymentUpdate) (resepModels.Prescription, error)
	DispensePrescription(ctx context.Context, id int64, req resepModels.DispenseRequest) (resepModels.Prescription, error)
}
