package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

// Role yang dikenal oleh dashboard.
const (
	RoleDokter   = "Dokter"
	RoleAdmin    = "Administrasi"
	RoleApoteker = "Apoteker"
)

// RequireRole menolak request yang role-nya tidak ada di daftar.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return utils.Respond(c, http.StatusUnauthorized, "Missing or invalid JWT claims", nil)
			}
			for _, r := range roles {
				if strings.EqualFold(r, claims.Role) {
					return next(c)
				}
			}
			return utils.Respond(c, http.StatusForbidden, "Anda tidak memiliki hak akses", nil)
		}
	}
}
