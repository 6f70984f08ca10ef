package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

type DashboardHandler struct {
	Service *services.DashboardService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewDashboardHandler создаёт новый экземпляр DashboardHandler.
func NewDashboardHandler(service *services.DashboardService, logger *log.Logger, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{Service: service, Logger: logger, Timeout: timeout}
}

// GetDashboard обрабатывает запросы сводки заказчика.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
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

	dashboard, err := h.Service.Dashboard(ctx, actor)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, dashboard)
}
