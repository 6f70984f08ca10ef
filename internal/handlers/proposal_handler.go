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

// ProposalHandler - структура для обработки предложений поставщиков.
type ProposalHandler struct {
	Service *services.ProposalService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewProposalHandler создаёт новый экземпляр ProposalHandler.
func NewProposalHandler(service *services.ProposalService, logger *log.Logger, timeout time.Duration) *ProposalHandler {
	return &ProposalHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitProposal обрабатывает запросы для отправки предложения.
func (h *ProposalHandler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	auctionID, err := utils.ParseUUID(r.PathValue("auctionId"), "auctionId")
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	var req models.ProposalRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	proposal, err := h.Service.SubmitProposal(ctx, actor, auctionID, req)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, proposal)
}
