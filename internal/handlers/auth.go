package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/auth"
	"github.com/HalooLaloo/quotesnap-sub000/internal/countries"
	"github.com/HalooLaloo/quotesnap-sub000/internal/httpx"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/validation"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Company  string `json:"company_name"`
	Country  string `json:"country"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	if len(req.Password) < 8 {
		v["password"] = "must be at least 8 characters"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	country := countries.ByCode(strings.ToUpper(req.Country))
	contractor := models.Contractor{
		Email:       req.Email,
		Password:    string(hash),
		FullName:    req.FullName,
		CompanyName: req.Company,
		Country:     country.Code,
		Currency:    country.Currency,
		NotifyEmail: true,
	}
	if err := h.db.Create(&contractor).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	auth.CreateSession(w, contractor.ID)
	httpx.JSON(w, http.StatusCreated, contractor)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	var contractor models.Contractor
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&contractor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(contractor.Password), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	auth.CreateSession(w, contractor.ID)
	httpx.JSON(w, http.StatusOK, contractor)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated contractor's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var contractor models.Contractor
	if err := h.db.First(&contractor, userID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, contractor)
}

type profileRequest struct {
	FullName        string `json:"full_name"`
	CompanyName     string `json:"company_name"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	Currency        string `json:"currency"`
	BusinessAddress string `json:"business_address"`
	TaxID           string `json:"tax_id"`
	BankName        string `json:"bank_name"`
	BankAccount     string `json:"bank_account"`
	BankRouting     string `json:"bank_routing"`
	NotifyEmail     *bool  `json:"notify_email"`
}

// UpdateProfile updates contractor settings. Bank details entered here are
// printed on every invoice that does not override them.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var contractor models.Contractor
	if err := h.db.First(&contractor, userID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	contractor.FullName = req.FullName
	contractor.CompanyName = req.CompanyName
	contractor.Phone = req.Phone
	contractor.BusinessAddress = req.BusinessAddress
	contractor.TaxID = req.TaxID
	contractor.BankName = req.BankName
	contractor.BankAccount = req.BankAccount
	contractor.BankRouting = req.BankRouting
	if req.Country != "" {
		contractor.Country = countries.ByCode(strings.ToUpper(req.Country)).Code
	}
	if req.Currency != "" {
		contractor.Currency = strings.ToUpper(req.Currency)
	}
	if req.NotifyEmail != nil {
		contractor.NotifyEmail = *req.NotifyEmail
	}

	if err := h.db.Save(&contractor).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, contractor)
}
