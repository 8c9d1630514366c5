package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	antrianControllers "github.com/c14220110/poliklinik-antrian/internal/antrian/controllers"
	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	"github.com/c14220110/poliklinik-antrian/internal/konsultasi/services"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type KonsultasiController struct {
	Service *services.KonsultasiService
}

func NewKonsultasiController(s *services.KonsultasiService) *KonsultasiController {
	return &KonsultasiController{Service: s}
}

// POST /api/antrian/konsultasi?id_antrian=
func (kc *KonsultasiController) SubmitCompletion(c echo.Context) error {
	id, err := antrianControllers.QueueIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}

	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		return utils.Respond(c, http.StatusUnauthorized, "Invalid or missing token claims", nil)
	}

	var req models.ConsultationCompletion
	if err := c.Bind(&req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	res, err := kc.Service.SubmitCompletion(c.Request().Context(), id, claims.IDKaryawan, req)
	if err != nil {
		return utils.RespondError(c, "Failed to complete consultation", err)
	}
	return utils.Respond(c, http.StatusOK, "Konsultasi berhasil diselesaikan", res)
}
