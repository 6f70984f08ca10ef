package notify

import (
	"fmt"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string // Вид уведомления в очереди

const (
	KindAuctionOpened Kind = "AUCTION_OPENED"
	KindNewProposal   Kind = "NEW_PROPOSAL"
	KindSelected      Kind = "SELECTED_PHASE_2"
	KindWinner        Kind = "WINNER"
)

// Intent - запрос на уведомление одного получателя об одном переходе аукциона.
type Intent struct {
	Kind         Kind
	RecipientID  uuid.UUID
	AuctionID    uuid.UUID
	AuctionTitle string
	Description  string
	BuyerName    string
	BuyerAddress string
	ClosingDate  time.Time
	SupplierName string
	Amount       decimal.Decimal
}

// NotificationType возвращает тип строки уведомления. NEW_PROPOSAL строку не создаёт.
func (in Intent) NotificationType() (models.NotificationType, bool) {
	switch in.Kind {
	case KindAuctionOpened:
		return models.NotificationAuctionOpened, true
	case KindSelected:
		return models.NotificationSelected, true
	case KindWinner:
		return models.NotificationWinner, true
	}
	return "", false
}

// Message - короткий текст для ленты уведомлений.
func (in Intent) Message() string {
	switch in.Kind {
	case KindAuctionOpened:
		return fmt.Sprintf("Auction opened by %s, take a look!", in.BuyerName)
	case KindSelected:
		return fmt.Sprintf("You were selected for the second phase of auction %q. Congratulations!", in.AuctionTitle)
	case KindWinner:
		return fmt.Sprintf("Congratulations! You won auction %q from %s.", in.AuctionTitle, in.BuyerName)
	case KindNewProposal:
		return fmt.Sprintf("%s sent a proposal for auction %q.", in.SupplierName, in.AuctionTitle)
	}
	return string(in.Kind)
}
