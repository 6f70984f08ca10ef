package models

import (
	"time"

	"github.com/google/uuid"
)

type AuctionPhase string // Фаза аукциона

const (
	PhaseOpen   AuctionPhase = "ABERTA"       // Аукцион открыт, принимаются предложения первой фазы
	PhaseSecond AuctionPhase = "SEGUNDA_FASE" // Вторая фаза, только для отобранных поставщиков
	PhaseClosed AuctionPhase = "ENCERRADA"    // Аукцион закрыт, победитель определён
)

// ProposalPhase возвращает фазу предложений, которая соответствует текущей фазе аукциона.
func (p AuctionPhase) ProposalPhase() ProposalPhase {
	if p == PhaseSecond {
		return ProposalPhase2
	}
	return ProposalPhase1
}

// Auction представляет модель аукциона (закупки).
type Auction struct {
	ID          uuid.UUID    `json:"id"`
	BuyerID     uuid.UUID    `json:"buyerId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ClosingDate time.Time    `json:"closingDate"`
	SegmentIDs  []uuid.UUID  `json:"-"`
	Phase       AuctionPhase `json:"phase"`
	WinnerID    *uuid.UUID   `json:"winnerId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
}

// HasSegment проверяет, относится ли аукцион хотя бы к одному из переданных сегментов.
func (a *Auction) HasSegment(segmentIDs []uuid.UUID) bool {
	for _, own := range a.SegmentIDs {
		for _, id := range segmentIDs {
			if own == id {
				return true
			}
		}
	}
	return false
}

// AuctionRequest представляет структуру запроса для создания аукциона.
type AuctionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ClosingDate string   `json:"closingDate"`
	Segments    []string `json:"segments"`
}

// AuctionView представляет аукцион в ответе API.
type AuctionView struct {
	Auction
	BuyerName     string   `json:"buyerName"`
	WinnerName    string   `json:"winnerName,omitempty"`
	Segments      []string `json:"segments"`
	ProposalCount int      `json:"proposalCount"`
}

// AdvanceRequest представляет запрос на переход во вторую фазу.
type AdvanceRequest struct {
	ProposalIDs []uuid.UUID `json:"proposalIds"`
}

// AdvanceResult описывает, какие предложения были отобраны, а какие пропущены.
type AdvanceResult struct {
	Selected []uuid.UUID `json:"selected"`
	Skipped  []uuid.UUID `json:"skipped"`
}

// WinnerRequest представляет запрос на выбор победителя.
type WinnerRequest struct {
	ProposalID uuid.UUID `json:"proposalId"`
}
