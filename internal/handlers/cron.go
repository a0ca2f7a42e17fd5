package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/services"
)

// CronHandler exposes the maintenance job to an external scheduler. When a
// secret is configured the caller must present it as a bearer token; with no
// secret the check is skipped, which keeps local development curl-able.
type CronHandler struct {
	maintenance *services.MaintenanceService
	secret      string
}

func NewCronHandler(m *services.MaintenanceService, secret string) *CronHandler {
	return &CronHandler{maintenance: m, secret: secret}
}

func (h *CronHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
	}

	result := h.maintenance.Run(r.Context(), time.Now())
	httpx.JSON(w, http.StatusOK, result)
}
