package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/internal/resep/services"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type ResepController struct{ Service *services.ResepService }

func NewResepController(s *services.ResepService) *ResepController {
	return &ResepController{Service: s}
}

func resepIDParam(c echo.Context) (int64, error) {
	raw := c.QueryParam("id_resep")
	if raw == "" {
		return 0, apperr.Validation("id_resep", "id_required", "id_resep parameter is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id_resep", "id_invalid", "id_resep must be a number")
	}
	return id, nil
}

// GET /api/resep?id_resep=
func (rc *ResepController) GetPrescription(c echo.Context) error {
	id, err := resepIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	p, err := rc.Service.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return utils.RespondError(c, "Failed to retrieve resep", err)
	}
	return utils.Respond(c, http.StatusOK, "Resep retrieved successfully", p)
}

// PUT /api/resep/pembayaran?id_resep=
func (rc *ResepController) UpdatePayment(c echo.Context) error {
	id, err := resepIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	var req models.PaymentUpdate
	if err := c.Bind(&req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}
	p, err := rc.Service.UpdatePayment(c.Request().Context(), id, req)
	if err != nil {
		return utils.RespondError(c, "Failed to update pembayaran", err)
	}
	return utils.Respond(c, http.StatusOK, "Pembayaran resep diperbarui", p)
}

// PUT /api/resep/serahkan?id_resep=
func (rc *ResepController) Dispense(c echo.Context) error {
	id, err := resepIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		return utils.Respond(c, http.StatusUnauthorized, "Invalid or missing token claims", nil)
	}
	var req models.DispenseRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return utils.Respond(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
		}
	}
	p, err := rc.Service.Dispense(c.Request().Context(), id, req, claims.Nama)
	if err != nil {
		return utils.RespondError(c, "Failed to dispense resep", err)
	}
	return utils.Respond(c, http.StatusOK, "Resep diserahkan", p)
}
