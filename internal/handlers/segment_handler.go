package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

type SegmentHandler struct {
	Service *services.SegmentService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewSegmentHandler создаёт новый экземпляр SegmentHandler.
func NewSegmentHandler(service *services.SegmentService, logger *log.Logger, timeout time.Duration) *SegmentHandler {
	return &SegmentHandler{Service: service, Logger: logger, Timeout: timeout}
}

// GetSegments возвращает все сегменты. Доступен без токена, нужен форме регистрации.
func (h *SegmentHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	segments, err := h.Service.List(ctx)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, segments)
}
