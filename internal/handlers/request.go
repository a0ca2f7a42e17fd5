package handlers

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/auth"
	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/ratelimit"
	"github.com/HalooLaloo/quotesnap-sub000/internal/validation"
)

type RequestHandler struct {
	db      *gorm.DB
	limiter *ratelimit.Limiter
	mailer  mailer.Mailer
	baseURL string
}

func NewRequestHandler(db *gorm.DB, limiter *ratelimit.Limiter, m mailer.Mailer, baseURL string) *RequestHandler {
	return &RequestHandler{db: db, limiter: limiter, mailer: m, baseURL: baseURL}
}

type intakeRequest struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Transcript  string `json:"transcript"`
}

// Intake is the public client-facing endpoint: anyone with a contractor's
// intake link can submit a job request. Rate limited per client IP, and the
// contractor id is never confirmed beyond accepted/rejected.
func (h *RequestHandler) Intake(w http.ResponseWriter, r *http.Request) {
	contractorID, err := strconv.ParseUint(r.PathValue("contractorID"), 10, 32)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	allowed, lerr := h.limiter.Allow(r.Context(), "intake:"+clientIP(r))
	if lerr != nil {
		log.Printf("intake limiter: %v", lerr)
	}
	if !allowed {
		httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
		return
	}

	var contractor models.Contractor
	if err := h.db.First(&contractor, contractorID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := make(validation.Violations)
	validation.Required("client_name", req.ClientName, v)
	validation.Required("description", req.Description, v)
	if req.ClientEmail != "" {
		validation.Email("client_email", req.ClientEmail, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	description := strings.TrimSpace(req.Description)
	if t := strings.TrimSpace(req.Transcript); t != "" {
		description = description + "\n" + models.TranscriptSentinel + "\n" + t
	}

	request := models.QuoteRequest{
		UserID:      contractor.ID,
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		Address:     strings.TrimSpace(req.Address),
		Description: description,
		Status:      models.RequestStatusNew,
	}
	if err := h.db.Create(&request).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	msg := mailer.IntakeMessage(contractor.Email, request.ClientName, request.Summary(), h.baseURL+"/requests")
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		log.Printf("request %d: intake notice failed: %v", request.ID, err)
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"id": request.ID, "status": request.Status})
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	db := h.db.Where("user_id = ?", userID)
	if status := r.URL.Query().Get("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var requests []models.QuoteRequest
	if err := db.Order("created_at DESC").Find(&requests).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var request models.QuoteRequest
	err := h.db.Where("id = ? AND user_id = ?", r.PathValue("id"), userID).First(&request).Error
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"request":    request,
		"summary":    request.Summary(),
		"transcript": request.Transcript(),
	})
}

// clientIP prefers the forwarded address set by the reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip, _, found := strings.Cut(fwd, ","); found || ip != "" {
			return strings.TrimSpace(ip)
		}
	}
	// RemoteAddr is host:port; SplitHostPort keeps IPv6 addresses whole.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
