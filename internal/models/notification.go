package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string // Тип уведомления

const (
	NotificationAuctionOpened NotificationType = "AUCTION_OPENED"   // Открыт аукцион в сегменте поставщика
	NotificationSelected      NotificationType = "SELECTED_PHASE_2" // Поставщик отобран во вторую фазу
	NotificationWinner        NotificationType = "WINNER"           // Поставщик победил
)

// Notification представляет модель уведомления пользователя.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"-"`
	AuctionID uuid.UUID        `json:"auctionId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
