package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - счётчики сервиса аукционов.
type Metrics struct {
	AuctionsCreated      prometheus.Counter
	ProposalsSubmitted   *prometheus.CounterVec
	PhaseAdvances        prometheus.Counter
	WinnersSelected      prometheus.Counter
	NotificationsSent    *prometheus.CounterVec
	NotificationsFailed  *prometheus.CounterVec
	NotificationsDropped prometheus.Counter
}

// New регистрирует метрики в reg. В тестах передаётся новый prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuctionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "auction_created_total",
			Help: "Total auctions created",
		}),
		ProposalsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_proposals_submitted_total",
			Help: "Total proposals submitted by phase",
		}, []string{"phase"}),
		PhaseAdvances: factory.NewCounter(prometheus.CounterOpts{
			Name: "auction_phase_advances_total",
			Help: "Total auctions moved to the second phase",
		}),
		WinnersSelected: factory.NewCounter(prometheus.CounterOpts{
			Name: "auction_winners_selected_total",
			Help: "Total auctions closed with a winner",
		}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_notifications_sent_total",
			Help: "Notification intents delivered by kind",
		}, []string{"kind"}),
		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_notifications_failed_total",
			Help: "Notification intents that failed by kind",
		}, []string{"kind"}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "auction_notifications_dropped_total",
			Help: "Notification intents dropped before reaching the queue",
		}),
	}
}

// IncAuctionCreated учитывает созданный аукцион.
func (m *Metrics) IncAuctionCreated() {
	if m != nil {
		m.AuctionsCreated.Inc()
	}
}

// IncProposalSubmitted учитывает поданное предложение.
func (m *Metrics) IncProposalSubmitted(phase string) {
	if m != nil {
		m.ProposalsSubmitted.WithLabelValues(phase).Inc()
	}
}

// IncPhaseAdvance учитывает переход во вторую фазу.
func (m *Metrics) IncPhaseAdvance() {
	if m != nil {
		m.PhaseAdvances.Inc()
	}
}

// IncWinnerSelected учитывает выбор победителя.
func (m *Metrics) IncWinnerSelected() {
	if m != nil {
		m.WinnersSelected.Inc()
	}
}

// IncNotificationSent учитывает доставленное уведомление.
func (m *Metrics) IncNotificationSent(kind string) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(kind).Inc()
	}
}

// IncNotificationFailed учитывает ошибку доставки.
func (m *Metrics) IncNotificationFailed(kind string) {
	if m != nil {
		m.NotificationsFailed.WithLabelValues(kind).Inc()
	}
}

// IncNotificationDropped учитывает уведомление, не попавшее в очередь.
func (m *Metrics) IncNotificationDropped() {
	if m != nil {
		m.NotificationsDropped.Inc()
	}
}
