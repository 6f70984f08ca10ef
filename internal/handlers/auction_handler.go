package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"

	"github.com/google/uuid"
)

// AuctionHandler - структура для обработки HTTP-запросов по аукционам.
type AuctionHandler struct {
	Service *services.AuctionService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAuctionHandler создаёт новый экземпляр AuctionHandler.
func NewAuctionHandler(service *services.AuctionService, logger *log.Logger, timeout time.Duration) *AuctionHandler {
	return &AuctionHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateAuction обрабатывает запросы для создания аукциона.
func (h *AuctionHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
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

	var req models.AuctionRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	auction, err := h.Service.Create(ctx, actor, req)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, auction)
}

// GetAuction обрабатывает запросы для получения аукциона.
func (h *AuctionHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
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

	auctionID, err := utils.ParseUUID(r.PathValue("auctionId"), "auctionId")
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	auction, err := h.Service.GetAuction(ctx, actor, auctionID)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, auction)
}

// GetMyAuctions обрабатывает запросы заказчика на список своих аукционов.
func (h *AuctionHandler) GetMyAuctions(w http.ResponseWriter, r *http.Request) {
	h.listAuctions(w, r, h.Service.ListBuyerAuctions)
}

// GetAvailableAuctions обрабатывает запросы поставщика на аукционы его сегментов.
func (h *AuctionHandler) GetAvailableAuctions(w http.ResponseWriter, r *http.Request) {
	h.listAuctions(w, r, h.Service.ListSupplierAuctions)
}

type listFunc func(ctx context.Context, actor models.Actor, limit, offset int) ([]models.AuctionView, error)

func (h *AuctionHandler) listAuctions(w http.ResponseWriter, r *http.Request, list listFunc) {
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

	auctions, err := list(ctx, actor, limit, offset)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, auctions)
}

// GetAuctionProposals обрабатывает запросы владельца на все предложения аукциона.
func (h *AuctionHandler) GetAuctionProposals(w http.ResponseWriter, r *http.Request) {
	h.listProposals(w, r, h.Service.ListAuctionProposals)
}

// GetCurrentProposals обрабатывает запросы владельца на предложения текущей фазы.
func (h *AuctionHandler) GetCurrentProposals(w http.ResponseWriter, r *http.Request) {
	h.listProposals(w, r, h.Service.ListCurrentPhaseProposals)
}

type proposalsFunc func(ctx context.Context, actor models.Actor, auctionID uuid.UUID) ([]models.ProposalView, error)

func (h *AuctionHandler) listProposals(w http.ResponseWriter, r *http.Request, list proposalsFunc) {
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

	auctionID, err := utils.ParseUUID(r.PathValue("auctionId"), "auctionId")
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	proposals, err := list(ctx, actor, auctionID)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, proposals)
}

// AdvanceToSecondPhase обрабатывает запросы на переход во вторую фазу.
func (h *AuctionHandler) AdvanceToSecondPhase(w http.ResponseWriter, r *http.Request) {
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

	var req models.AdvanceRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	result, err := h.Service.AdvanceToPhase2(ctx, actor, auctionID, req.ProposalIDs)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, result)
}

// SelectWinner обрабатывает запросы на выбор победителя.
func (h *AuctionHandler) SelectWinner(w http.ResponseWriter, r *http.Request) {
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

	var req models.WinnerRequest
	if err := decodeBody(r, &req); err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}
	if req.ProposalID == uuid.Nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "proposalId is required")
		return
	}

	auction, err := h.Service.SelectWinner(ctx, actor, auctionID, req.ProposalID)
	if err != nil {
		sendServiceError(w, h.Logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, auction)
}
