package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

// UserHandler - структура для обработки запросов регистрации, входа и профиля.
type UserHandler struct {
	Service *services.UserService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(service *services.UserService, logger *log.Logger, timeout time.Duration) *UserHandler {
	return &UserHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// Register обрабатывает запросы регистрации.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	resp, err := h.Service.Register(ctx, req)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, resp)
}

// Login обрабатывает запросы входа по CPF/CNPJ и паролю.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	resp, err := h.Service.Login(ctx, req)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, resp)
}

// GetProfile обрабатывает запросы профиля текущего пользователя.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	profile, err := h.Service.GetProfile(ctx, actor)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, profile)
}

// UpdateProfile обрабатывает запросы на изменение профиля.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodPut)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.ProfileRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	profile, err := h.Service.UpdateProfile(ctx, actor, req)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, profile)
}
