package console

import (
	"context"
	"time"

	"github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
)

// PrescriptionActions adalah aksi yang boleh ditampilkan untuk satu resep.
type PrescriptionActions struct {
	UpdatePayment bool
	Dispense      bool
}

// PrescriptionDesk menjalankan aksi apotek dengan pemeriksaan lokal sebelum memanggil API.
// Kedaluwarsa selalu dihitung dari jam saat aksi dilakukan.
type PrescriptionDesk struct {
	API ClinicAPI
	Log *logger.Logger
	now func() time.Time
}

func NewPrescriptionDesk(api ClinicAPI, log *logger.Logger) *PrescriptionDesk {
	return &PrescriptionDesk{API: api, Log: log, now: time.Now}
}

func (p *PrescriptionDesk) Actions(rx models.Prescription) PrescriptionActions {
	now := p.now()
	return PrescriptionActions{
		UpdatePayment: rx.CanUpdatePayment(now) == nil,
		Dispense:      rx.CanDispense(now) == nil,
	}
}

func (p *PrescriptionDesk) Load(ctx context.Context, id int64) (models.Prescription, error) {
	return p.API.GetPrescription(ctx, id)
}

func (p *PrescriptionDesk) UpdatePayment(ctx context.Context, rx models.Prescription, upd models.PaymentUpdate) (models.Prescription, error) {
	if err := rx.CanUpdatePayment(p.now()); err != nil {
		return rx, err
	}
	if err := upd.Validate(); err != nil {
		return rx, err
	}
	out, err := p.API.UpdatePrescriptionPayment(ctx, rx.ID, upd)
	if err != nil {
		p.Log.WithComponent("apotek").WithError(err).
			WithField("id_resep", rx.ID).Warn("Gagal memperbarui pembayaran resep")
		return rx, err
	}
	return out, nil
}

// Dispense hanya dikirim jika resep sudah dibayar, belum diserahkan, dan belum kedaluwarsa.
func (p *PrescriptionDesk) Dispense(ctx context.Context, rx models.Prescription, notes string) (models.Prescription, error) {
	if err := rx.CanDispense(p.now()); err != nil {
		return rx, err
	}
	req := models.DispenseRequest{PharmacyNotes: notes}
	if err := req.Validate(); err != nil {
		return rx, err
	}
	out, err := p.API.DispensePrescription(ctx, rx.ID, req)
	if err != nil {
		p.Log.WithComponent("apotek").WithError(err).
			WithField("id_resep", rx.ID).Warn("Gagal menyerahkan resep")
		return rx, err
	}
	return out, nil
}
