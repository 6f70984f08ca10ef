package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/senyabanana/auction-service/internal/metrics"
	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Dispatcher принимает намерения уведомить и обрабатывает их пулом воркеров.
// Ошибки доставки не возвращаются вызывающему: они пишутся в журнал и в метрики.
// Enqueue не блокируется: намерения копятся в pending, откуда их забирает pump.
type Dispatcher struct {
	repos    repository.Repositories
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *log.Logger
	workers  int
	queue    chan Intent
	wake     chan struct{}
	now      func() time.Time

	mu      sync.Mutex
	pending []Intent
	closed  bool
}

// NewDispatcher создает новый экземпляр Dispatcher.
func NewDispatcher(repos repository.Repositories, notifier Notifier, m *metrics.Metrics, logger *log.Logger, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		repos:    repos,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		workers:  workers,
		queue:    make(chan Intent, queueSize),
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Enqueue ставит намерения в очередь и сразу возвращается. Отмена ctx запроса
// на доставку не влияет. После Close намерения отбрасываются.
func (d *Dispatcher) Enqueue(_ context.Context, intents ...Intent) {
	if len(intents) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		for _, in := range intents {
			d.drop(in, "dispatcher closed")
		}
		return
	}
	d.pending = append(d.pending, intents...)
	d.signal()
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// takePending забирает накопленные намерения.
func (d *Dispatcher) takePending() (batch []Intent, closed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch, d.pending = d.pending, nil
	return batch, d.closed
}

// pump переносит намерения из pending в очередь воркеров. После Close
// дочищает остаток и закрывает очередь.
func (d *Dispatcher) pump(ctx context.Context) error {
	defer close(d.queue)
	for {
		batch, closed := d.takePending()
		for i, in := range batch {
			select {
			case d.queue <- in:
			case <-ctx.Done():
				rest, _ := d.takePending()
				d.dropAll(append(batch[i:], rest...), ctx.Err())
				return ctx.Err()
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return nil
		}
		select {
		case <-d.wake:
		case <-ctx.Done():
			batch, _ = d.takePending()
			d.dropAll(batch, ctx.Err())
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) dropAll(intents []Intent, err error) {
	for _, in := range intents {
		d.drop(in, err.Error())
	}
}

func (d *Dispatcher) drop(in Intent, reason string) {
	d.metrics.IncNotificationDropped()
	d.logger.Printf("notify: dropped %s for %s on auction %s: %s", in.Kind, in.RecipientID, in.AuctionID, reason)
}

// Run запускает воркеров и ждёт, пока после Close не будут разобраны все намерения.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.pump(ctx) })
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case in, ok := <-d.queue:
					if !ok {
						return nil
					}
					d.handle(ctx, in)
				}
			}
		})
	}
	return g.Wait()
}

// Close прекращает приём новых намерений. Уже принятые будут доставлены.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.signal()
}

func (d *Dispatcher) handle(ctx context.Context, in Intent) {
	if err := d.Deliver(ctx, in); err != nil {
		d.metrics.IncNotificationFailed(string(in.Kind))
		d.logger.Printf("notify: %s for %s on auction %s: %v", in.Kind, in.RecipientID, in.AuctionID, err)
		return
	}
	d.metrics.IncNotificationSent(string(in.Kind))
}

// Deliver сохраняет строку уведомления (если она положена для вида) и отправляет письмо.
// Строка сохраняется, даже если внешний канал вернул ошибку.
func (d *Dispatcher) Deliver(ctx context.Context, in Intent) error {
	recipient, err := d.repos.Users().GetByID(ctx, in.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}

	if notificationType, ok := in.NotificationType(); ok {
		n := &models.Notification{
			ID:        uuid.New(),
			UserID:    recipient.ID,
			AuctionID: in.AuctionID,
			Type:      notificationType,
			Message:   in.Message(),
			CreatedAt: d.now(),
		}
		if err := d.repos.Notifications().Create(ctx, n); err != nil {
			return fmt.Errorf("save notification: %w", err)
		}
	}

	switch in.Kind {
	case KindAuctionOpened:
		err = d.notifier.NotifyAuctionOpened(ctx, *recipient, in)
	case KindNewProposal:
		err = d.notifier.NotifyNewProposal(ctx, *recipient, in)
	case KindSelected:
		err = d.notifier.NotifySelectedPhase2(ctx, *recipient, in)
	case KindWinner:
		err = d.notifier.NotifyWinner(ctx, *recipient, in)
	default:
		err = fmt.Errorf("unknown intent kind %q", in.Kind)
	}
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
