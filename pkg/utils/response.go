package utils

import (
	"errors"
	"net/http"

	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
	"github.com/labstack/echo/v4"
)

// Envelope adalah format respons standar {status, message, data}.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// HTTPStatus memetakan jenis error ke kode HTTP.
func HTTPStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError menulis error ke envelope. Untuk error validasi, field yang gagal
// dikirim di data supaya form bisa menandai input yang salah.
func RespondError(c echo.Context, prefix string, err error) error {
	status := HTTPStatus(err)
	msg := apperr.Message(err)
	if status == http.StatusInternalServerError && prefix != "" {
		msg = prefix + ": " + msg
	}

	var data interface{}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		data = map[string]interface{}{"code": ae.Code, "field": ae.Field}
	}
	return Respond(c, status, msg, data)
}
