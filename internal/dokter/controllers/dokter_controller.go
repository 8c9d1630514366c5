package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/dokter/models"
	"github.com/c14220110/poliklinik-antrian/internal/dokter/services"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type DokterController struct {
	Service *services.DokterService
}

func NewDokterController(service *services.DokterService) *DokterController {
	return &DokterController{Service: service}
}

// POST /api/dokter/login
func (dc *DokterController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}
	res, err := dc.Service.Login(c.Request().Context(), req)
	if err != nil {
		return utils.RespondError(c, "Login failed", err)
	}
	return utils.Respond(c, http.StatusOK, "Login successful", res)
}
