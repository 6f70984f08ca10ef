package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/senyabanana/auction-service/internal/models"
)

// Notifier доставляет уведомления получателю по внешнему каналу.
type Notifier interface {
	NotifyAuctionOpened(ctx context.Context, recipient models.User, in Intent) error
	NotifyNewProposal(ctx context.Context, recipient models.User, in Intent) error
	NotifySelectedPhase2(ctx context.Context, recipient models.User, in Intent) error
	NotifyWinner(ctx context.Context, recipient models.User, in Intent) error
}

// Mail - готовое к отправке письмо.
type Mail struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Render формирует письмо для получателя.
func Render(recipient models.User, in Intent) Mail {
	m := Mail{To: recipient.Email, Name: recipient.Name}
	switch in.Kind {
	case KindAuctionOpened:
		m.Subject = "New auction for you"
		m.Body = fmt.Sprintf("Hello %s,\n\nA new auction was published.\n\n"+
			"Auction: %s\nDescription: %s\nCompany: %s\nAddress: %s\nClosing date: %s\n\n"+
			"Sign in to send your proposal.",
			recipient.Name, in.AuctionTitle, orDash(in.Description), in.BuyerName,
			orDash(in.BuyerAddress), in.ClosingDate.Format("02/01/2006"))
	case KindNewProposal:
		m.Subject = "Supplier response on auction " + in.AuctionTitle
		m.Body = fmt.Sprintf("Hello %s,\n\nSupplier %s sent a proposal for auction %s.\n\n"+
			"Description: %s\nAmount (fee included): R$ %s\n\n"+
			"Sign in to see all the details.",
			recipient.Name, in.SupplierName, in.AuctionTitle, orDash(in.Description), in.Amount.StringFixed(2))
	case KindSelected:
		m.Subject = "You were selected for the second phase"
		m.Body = fmt.Sprintf("Hello %s,\n\nCongratulations! You were selected for the second phase of auction %s.\n\n"+
			"Sign in to send your new proposal and budget.",
			recipient.Name, in.AuctionTitle)
	case KindWinner:
		m.Subject = "You won auction " + in.AuctionTitle
		m.Body = fmt.Sprintf("Hello %s,\n\nCongratulations! You were chosen as the winner of auction %s.\n\n"+
			"Contact the company for the next steps.",
			recipient.Name, in.AuctionTitle)
	default:
		m.Subject = string(in.Kind)
		m.Body = in.Message()
	}
	return m
}

// LogMailer пишет письма в журнал сервиса вместо отправки.
type LogMailer struct {
	Logger *log.Logger
}

// NewLogMailer создает новый экземпляр LogMailer.
func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) NotifyAuctionOpened(ctx context.Context, recipient models.User, in Intent) error {
	return m.send(ctx, Render(recipient, in))
}

func (m *LogMailer) NotifyNewProposal(ctx context.Context, recipient models.User, in Intent) error {
	return m.send(ctx, Render(recipient, in))
}

func (m *LogMailer) NotifySelectedPhase2(ctx context.Context, recipient models.User, in Intent) error {
	return m.send(ctx, Render(recipient, in))
}

func (m *LogMailer) NotifyWinner(ctx context.Context, recipient models.User, in Intent) error {
	return m.send(ctx, Render(recipient, in))
}

func (m *LogMailer) send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mail.To == "" {
		return fmt.Errorf("mail %q: empty recipient", mail.Subject)
	}
	m.Logger.Printf("mail to=%s subject=%q", mail.To, mail.Subject)
	return nil
}
