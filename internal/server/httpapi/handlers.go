package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/dmitrijs2005/safepazz/internal/server/policy"
	"github.com/dmitrijs2005/safepazz/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const serviceName = "Safe Pazz API"

const recoveryRequestedMessage = "If the email exists, a recovery link has been sent"

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Login(ctx context.Context, email, masterPassword, code string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (string, error)
}

type RecoveryService interface {
	RequestRecovery(ctx context.Context, email, ipAddress string) (string, error)
	VerifyRecovery(ctx context.Context, in services.VerifyRecoveryInput) error
}

type PasswordService interface {
	Create(ctx context.Context, userID string, in models.CredentialInput) (string, error)
	List(ctx context.Context, userID string) ([]models.CredentialSummary, error)
	Get(ctx context.Context, id, userID string) (*models.CredentialDetails, error)
	Update(ctx context.Context, id, userID string, patch models.CredentialPatch) error
	Delete(ctx context.Context, id, userID string) error
}

// Handler serves the API routes.
type Handler struct {
	auth      AuthService
	recovery  RecoveryService
	passwords PasswordService
	logger    logging.Logger
	devMode   bool

	Now func() time.Time
}

func NewHandler(auth AuthService, recovery RecoveryService, passwords PasswordService,
	logger logging.Logger, devMode bool) *Handler {
	return &Handler{
		auth:      auth,
		recovery:  recovery,
		passwords: passwords,
		logger:    logger.With("module", "httpapi"),
		devMode:   devMode,
		Now:       time.Now,
	}
}

// fail writes err as an error envelope. Domain errors are sent with their
// identifier; anything else is logged and reported as a generic 500 unless
// running in dev mode.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	class, sentinel := common.Classify(err)
	if sentinel != nil {
		writeError(w, statusFor(class), sentinel.Error(), sentinel.Error())
		return
	}

	h.logger.Error(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()), "error", err)

	msg := msgInternal
	if h.devMode {
		msg = err.Error()
	}
	writeError(w, http.StatusInternalServerError, codeInternal, msg)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: h.Now().UTC(),
		Service:   serviceName,
	})
}

type registerRequest struct {
	Email                 string  `json:"email"`
	MasterPassword        string  `json:"masterPassword"`
	ConfirmMasterPassword string  `json:"confirmMasterPassword"`
	SecurityQuestion      string  `json:"securityQuestion"`
	SecurityAnswer        string  `json:"securityAnswer"`
	TwoFactorEnabled      bool    `json:"twoFactorEnabled"`
	Phone                 *string `json:"phone"`
	InactivityTimeout     *int    `json:"inactivityTimeout"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}

	res, err := h.auth.Register(r.Context(), services.RegisterInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email          string `json:"email"`
	MasterPassword string `json:"masterPassword"`
	TwoFactorCode  string `json:"twoFactorCode"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}
	if err := policy.Email(req.Email); err != nil {
		writeValidation(w, err.Error())
		return
	}
	if req.MasterPassword == "" {
		writeValidation(w, "masterPasswordRequired")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.MasterPassword, req.TwoFactorCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// Logout ends the bearer session. Unknown tokens are accepted so the call
// can be retried.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized,
			common.ErrAuthenticationNeeded.Error(), common.ErrAuthenticationNeeded.Error())
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true})
}

type recoveryRequest struct {
	Email string `json:"email"`
}

type recoveryRequestResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (h *Handler) RequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}
	if err := policy.Email(req.Email); err != nil {
		writeValidation(w, err.Error())
		return
	}

	token, err := h.recovery.RequestRecovery(r.Context(), req.Email, clientIP(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res := recoveryRequestResponse{Message: recoveryRequestedMessage}
	if h.devMode {
		res.Token = token
	}
	writeData(w, http.StatusOK, res)
}

type verifyRecoveryRequest struct {
	Token                    string `json:"token"`
	SecurityAnswer           string `json:"securityAnswer"`
	NewMasterPassword        string `json:"newMasterPassword"`
	ConfirmNewMasterPassword string `json:"confirmNewMasterPassword"`
}

func (h *Handler) VerifyRecovery(w http.ResponseWriter, r *http.Request) {
	var req verifyRecoveryRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}
	switch {
	case req.Token == "":
		writeValidation(w, "tokenRequired")
		return
	case req.SecurityAnswer == "":
		writeValidation(w, "securityAnswerRequired")
		return
	}

	err := h.recovery.VerifyRecovery(r.Context(), services.VerifyRecoveryInput(req))
	if errors.Is(err, common.ErrUserNotFound) {
		// a recovery request whose user is gone is a client error, not a 404
		writeError(w, http.StatusBadRequest, common.ErrUserNotFound.Error(), common.ErrUserNotFound.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true})
}

// optionalTime distinguishes an absent field from an explicit null or empty
// string, both of which clear the value.
type optionalTime struct {
	set   bool
	value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	o.value = &t
	return nil
}

type createPasswordRequest struct {
	Title          string       `json:"title"`
	Username       string       `json:"username"`
	Password       string       `json:"password"`
	URL            string       `json:"url"`
	Category       string       `json:"category"`
	Notes          string       `json:"notes"`
	ExpirationDate optionalTime `json:"expirationDate"`
	IsFavorite     bool         `json:"isFavorite"`
}

type updatePasswordRequest struct {
	Title          *string      `json:"title"`
	Username       *string      `json:"username"`
	Password       *string      `json:"password"`
	URL            *string      `json:"url"`
	Category       *string      `json:"category"`
	Notes          *string      `json:"notes"`
	ExpirationDate optionalTime `json:"expirationDate"`
	IsFavorite     *bool        `json:"isFavorite"`
}

func (req *updatePasswordRequest) patch() models.CredentialPatch {
	p := models.CredentialPatch{
		Title:      req.Title,
		Username:   req.Username,
		Password:   req.Password,
		URL:        req.URL,
		Category:   req.Category,
		Notes:      req.Notes,
		IsFavorite: req.IsFavorite,
	}
	if req.ExpirationDate.set {
		p.ExpirationDate = &time.Time{}
		if req.ExpirationDate.value != nil {
			p.ExpirationDate = req.ExpirationDate.value
		}
	}
	return p
}

type idResponse struct {
	ID string `json:"id"`
}

// currentUser returns the user id stored by Authenticate.
func currentUser(r *http.Request) string {
	id, _ := UserID(r.Context())
	return id
}

// passwordID returns the {id} route parameter, or "" if it is not a uuid.
func passwordID(r *http.Request) string {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return ""
	}
	return id.String()
}

func (h *Handler) ListPasswords(w http.ResponseWriter, r *http.Request) {
	list, err := h.passwords.List(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *Handler) CreatePassword(w http.ResponseWriter, r *http.Request) {
	var req createPasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}

	id, err := h.passwords.Create(r.Context(), currentUser(r), models.CredentialInput{
		Title:          req.Title,
		Username:       req.Username,
		Password:       req.Password,
		URL:            req.URL,
		Category:       req.Category,
		Notes:          req.Notes,
		ExpirationDate: req.ExpirationDate.value,
		IsFavorite:     req.IsFavorite,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) GetPassword(w http.ResponseWriter, r *http.Request) {
	id := passwordID(r)
	if id == "" {
		writeValidation(w, "invalidPasswordId")
		return
	}

	details, err := h.passwords.Get(r.Context(), id, currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, details)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	id := passwordID(r)
	if id == "" {
		writeValidation(w, "invalidPasswordId")
		return
	}
	var req updatePasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeValidation(w, msgInvalidBody)
		return
	}

	if err := h.passwords.Update(r.Context(), id, currentUser(r), req.patch()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true})
}

func (h *Handler) DeletePassword(w http.ResponseWriter, r *http.Request) {
	id := passwordID(r)
	if id == "" {
		writeValidation(w, "invalidPasswordId")
		return
	}

	if err := h.passwords.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true})
}
