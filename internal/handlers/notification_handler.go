package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

type NotificationHandler struct {
	Service *services.NotificationService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewNotificationHandler создаёт новый экземпляр NotificationHandler.
func NewNotificationHandler(service *services.NotificationService, logger *log.Logger, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{Service: service, Logger: logger, Timeout: timeout}
}

// GetNotifications обрабатывает запросы входящих уведомлений.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
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

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	notifications, err := h.Service.ListNotifications(ctx, actor, limit, offset)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, notifications)
}

// GetUnreadCount обрабатывает запросы количества непрочитанных уведомлений.
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
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

	count, err := h.Service.CountUnread(ctx, actor)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead обрабатывает запросы на отметку уведомления прочитанным.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	notificationID, err := utils.ParseUUID(r.PathValue("notificationId"), "notificationId")
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	if err := h.Service.MarkRead(ctx, actor, notificationID); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
