package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/obat/services"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type ObatController struct {
	Service *services.ObatService
}

func NewObatController(s *services.ObatService) *ObatController {
	return &ObatController{Service: s}
}

// GET /api/obat/cari?q=para&kategori=Analgesik&limit=20
func (oc *ObatController) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit")) // default di-handle service
	res, err := oc.Service.Search(c.Request().Context(), c.QueryParam("q"), c.QueryParam("kategori"), limit)
	if err != nil {
		return utils.RespondError(c, "Failed to search obat", err)
	}
	return utils.Respond(c, http.StatusOK, "Obat retrieved successfully", res)
}

// GET /api/obat/kategori
func (oc *ObatController) Categories(c echo.Context) error {
	list, err := oc.Service.Categories(c.Request().Context())
	if err != nil {
		return utils.RespondError(c, "Failed to retrieve kategori obat", err)
	}
	return utils.Respond(c, http.StatusOK, "Kategori obat retrieved successfully", list)
}
