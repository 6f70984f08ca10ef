package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	ProposalPhase  string // Фаза, для которой подано предложение
	ProposalStatus string // Статус предложения
)

const (
	ProposalPhase1 ProposalPhase = "PHASE_1"
	ProposalPhase2 ProposalPhase = "PHASE_2"

	ProposalSubmitted ProposalStatus = "SUBMITTED"            // Предложение отправлено
	ProposalSelected  ProposalStatus = "SELECTED_FOR_PHASE_2" // Предложение отобрано во вторую фазу
	ProposalWinner    ProposalStatus = "WINNER"               // Предложение победило
)

// Proposal представляет модель предложения поставщика.
type Proposal struct {
	ID            uuid.UUID       `json:"id"`
	AuctionID     uuid.UUID       `json:"auctionId"`
	SupplierID    uuid.UUID       `json:"supplierId"`
	Phase         ProposalPhase   `json:"phase"`
	Description   string          `json:"description"`
	Budget        decimal.Decimal `json:"budget"`
	AmountWithFee decimal.Decimal `json:"amountWithFee"`
	Status        ProposalStatus  `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProposalRequest представляет структуру запроса для отправки предложения.
type ProposalRequest struct {
	SecondPhase bool            `json:"secondPhase"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
}

// ProposalView представляет предложение в ответе API вместе с данными поставщика.
type ProposalView struct {
	Proposal
	SupplierName  string `json:"supplierName"`
	SupplierEmail string `json:"supplierEmail"`
}

// WinningProposal - выигравшее предложение вместе с датой закрытия аукциона.
type WinningProposal struct {
	ProposalID    uuid.UUID
	AuctionID     uuid.UUID
	AmountWithFee decimal.Decimal
	ClosedAt      time.Time
}
