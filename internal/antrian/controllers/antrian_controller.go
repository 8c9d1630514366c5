package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	"github.com/c14220110/poliklinik-antrian/internal/antrian/services"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

type AntrianController struct {
	Service *services.AntrianService
}

func NewAntrianController(s *services.AntrianService) *AntrianController {
	return &AntrianController{Service: s}
}

// ActiveQueuesResponse menambahkan papan antrian ke snapshot.
type ActiveQueuesResponse struct {
	models.ActiveQueues
	Board models.Board `json:"board"`
}

// QueueIDParam membaca query param id_antrian.
func QueueIDParam(c echo.Context) (int64, error) {
	raw := c.QueryParam("id_antrian")
	if raw == "" {
		return 0, apperr.Validation("id_antrian", "id_required", "id_antrian parameter is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id_antrian", "id_invalid", "id_antrian must be a number")
	}
	return id, nil
}

// GET /api/antrian/aktif?tanggal=YYYY-MM-DD
func (ac *AntrianController) GetActiveQueues(c echo.Context) error {
	res, err := ac.Service.GetActiveQueues(c.Request().Context(), c.QueryParam("tanggal"))
	if err != nil {
		return utils.RespondError(c, "Failed to retrieve antrian", err)
	}
	return utils.Respond(c, http.StatusOK, "Antrian retrieved successfully", ActiveQueuesResponse{
		ActiveQueues: res,
		Board:        models.DeriveBoard(res.Queues),
	})
}

// PUT /api/antrian/panggil?id_antrian=
func (ac *AntrianController) CallPatient(c echo.Context) error {
	id, err := QueueIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	entry, err := ac.Service.CallPatient(c.Request().Context(), id)
	if err != nil {
		return utils.RespondError(c, "Failed to call patient", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien dipanggil", entry)
}

// PUT /api/antrian/mulai?id_antrian=
func (ac *AntrianController) StartConsultation(c echo.Context) error {
	id, err := QueueIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	entry, err := ac.Service.StartConsultation(c.Request().Context(), id)
	if err != nil {
		return utils.RespondError(c, "Failed to start consultation", err)
	}
	return utils.Respond(c, http.StatusOK, "Konsultasi dimulai", entry)
}

// PUT /api/antrian/selesai?id_antrian=
func (ac *AntrianController) CompleteConsultation(c echo.Context) error {
	id, err := QueueIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	entry, err := ac.Service.CompleteConsultation(c.Request().Context(), id)
	if err != nil {
		return utils.RespondError(c, "Failed to complete consultation", err)
	}
	return utils.Respond(c, http.StatusOK, "Konsultasi selesai", entry)
}

// PUT /api/antrian/batal?id_antrian=  body {reason}
func (ac *AntrianController) CancelQueue(c echo.Context) error {
	id, err := QueueIDParam(c)
	if err != nil {
		return utils.RespondError(c, "", err)
	}
	var req models.CancelRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return utils.Respond(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
		}
	}
	entry, err := ac.Service.CancelQueue(c.Request().Context(), id, req.Reason)
	if err != nil {
		return utils.RespondError(c, "Failed to cancel antrian", err)
	}
	return utils.Respond(c, http.StatusOK, "Antrian dibatalkan", entry)
}
