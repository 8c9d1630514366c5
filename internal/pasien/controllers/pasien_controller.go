package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/pasien/services"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type PasienController struct {
	Service *services.PasienService
}

func NewPasienController(s *services.PasienService) *PasienController {
	return &PasienController{Service: s}
}

// GET /api/pasien/cari?q=budi&limit=10
func (pc *PasienController) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := pc.Service.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return utils.RespondError(c, "Failed to search pasien", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien retrieved successfully", list)
}
