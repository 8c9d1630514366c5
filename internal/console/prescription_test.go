package console

import (
	"context"
	"testing"
	"time"

	"github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deskNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newDesk(api ClinicAPI) *PrescriptionDesk {
	d := NewPrescriptionDesk(api, logger.Discard())
	d.now = func() time.Time { return deskNow }
	return d
}

func rx(status models.PaymentStatus, dispensed bool, expires time.Time) models.Prescription {
	return models.Prescription{
		ID:               7,
		PrescriptionCode: "RX-20260301-0A1B2C3D",
		PaymentStatus:    status,
		IsDispensed:      dispensed,
		ExpiresAt:        expires,
	}
}

func TestPrescriptionDesk_DispenseGating(t *testing.T) {
	future := deskNow.Add(24 * time.Hour)
	past := deskNow.Add(-time.Minute)

	cases := []struct {
		name string
		rx   models.Prescription
		ok   bool
	}{
		{"lunas", rx(models.PaymentPaid, false, future), true},
		{"belum dibayar", rx(models.PaymentPending, false, future), false},
		{"pembayaran gagal", rx(models.PaymentFailed, false, future), false},
		{"sudah diserahkan", rx(models.PaymentPaid, true, future), false},
		{"kedaluwarsa", rx(models.PaymentPaid, false, past), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI()
			api.rx[7] = tc.rx
			desk := newDesk(api)

			assert.Equal(t, tc.ok, desk.Actions(tc.rx).Dispense)
			out, err := desk.Dispense(context.Background(), tc.rx, "Diminum setelah makan")
			if tc.ok {
				require.NoError(t, err)
				assert.True(t, out.IsDispensed)
				assert.Equal(t, 1, api.count("rx_dispense"))
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindConflict))
			assert.Equal(t, 0, api.count("rx_dispense"))
			assert.Equal(t, tc.rx, out)
		})
	}
}

func TestPrescriptionDesk_UpdatePayment(t *testing.T) {
	api := newFakeAPI()
	p := rx(models.PaymentPending, false, deskNow.Add(time.Hour))
	api.rx[7] = p
	desk := newDesk(api)

	_, err := desk.UpdatePayment(context.Background(), p, models.PaymentUpdate{PaymentStatus: "LUNAS", PaymentMethod: models.MethodCash})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 0, api.count("rx_payment"))

	out, err := desk.UpdatePayment(context.Background(), p, models.PaymentUpdate{PaymentStatus: models.PaymentFailed, PaymentMethod: models.MethodCreditCard})
	require.NoError(t, err)
	out, err = desk.UpdatePayment(context.Background(), out, models.PaymentUpdate{PaymentStatus: models.PaymentPaid, PaymentMethod: models.MethodCash})
	require.NoError(t, err)
	assert.True(t, out.IsPaid())
	assert.Equal(t, 2, api.count("rx_payment"))

	acts := desk.Actions(out)
	assert.True(t, acts.UpdatePayment)
	assert.True(t, acts.Dispense)

	expired := rx(models.PaymentPending, false, deskNow.Add(-time.Hour))
	_, err = desk.UpdatePayment(context.Background(), expired, models.PaymentUpdate{PaymentStatus: models.PaymentPaid, PaymentMethod: models.MethodCash})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.False(t, desk.Actions(expired).UpdatePayment)
}

func TestPrescriptionDesk_Load(t *testing.T) {
	api := newFakeAPI()
	desk := newDesk(api)

	_, err := desk.Load(context.Background(), 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
