package services

import (
	"context"
	"sort"
	"time"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardService struct {
	Store repository.Repositories
	cfg   Config
}

// NewDashboardService создаёт новый экземпляр DashboardService.
func NewDashboardService(store repository.Repositories, cfg Config) *DashboardService {
	return &DashboardService{Store: store, cfg: cfg.withDefaults()}
}

// Dashboard считает сводку заказчика на момент запроса.
func (s *DashboardService) Dashboard(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	if actor.Type != models.Buyer {
		return nil, models.NewRuleViolation("dashboard is available to buyers only")
	}
	buyerID := actor.UserID
	d := &models.Dashboard{ClosedBySegment: []models.SegmentCount{}, SpendHistory: []models.MonthlySpend{}}

	var err error
	if d.Open, err = s.Store.Auctions().CountByBuyerAndPhase(ctx, buyerID, models.PhaseOpen); err != nil {
		return nil, err
	}
	if d.SecondPhase, err = s.Store.Auctions().CountByBuyerAndPhase(ctx, buyerID, models.PhaseSecond); err != nil {
		return nil, err
	}
	if d.Closed, err = s.Store.Auctions().CountByBuyerAndPhase(ctx, buyerID, models.PhaseClosed); err != nil {
		return nil, err
	}
	today := s.cfg.today()
	if d.Overdue, err = s.Store.Auctions().CountOverdue(ctx, buyerID, today); err != nil {
		return nil, err
	}

	if d.ClosedBySegment, err = s.closedBySegment(ctx, buyerID); err != nil {
		return nil, err
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.cfg.Location)
	d.CurrentMonthSpend, err = s.Store.Proposals().SumWinningAmounts(ctx, buyerID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	if d.SpendHistory, err = s.spendHistory(ctx, buyerID); err != nil {
		return nil, err
	}
	return d, nil
}

// closedBySegment считает закрытые аукционы по сегментам. Аукцион с N сегментами попадает в N групп.
func (s *DashboardService) closedBySegment(ctx context.Context, buyerID uuid.UUID) ([]models.SegmentCount, error) {
	closed, err := s.Store.Auctions().ListClosedByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int)
	for _, a := range closed {
		for _, id := range a.SegmentIDs {
			counts[id]++
		}
	}
	if len(counts) == 0 {
		return []models.SegmentCount{}, nil
	}

	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	segments, err := s.Store.Segments().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.SegmentCount, 0, len(segments))
	for _, seg := range segments {
		result = append(result, models.SegmentCount{Segment: seg.Name, Count: counts[seg.ID]})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Segment < result[j].Segment })
	return result, nil
}

type yearMonth struct {
	year  int
	month int
}

// spendHistory группирует выигравшие предложения по месяцу закрытия, новые месяцы первыми.
func (s *DashboardService) spendHistory(ctx context.Context, buyerID uuid.UUID) ([]models.MonthlySpend, error) {
	winners, err := s.Store.Proposals().ListWinningByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	totals := make(map[yearMonth]decimal.Decimal)
	for _, w := range winners {
		closedAt := w.ClosedAt.In(s.cfg.Location)
		key := yearMonth{year: closedAt.Year(), month: int(closedAt.Month())}
		totals[key] = totals[key].Add(w.AmountWithFee)
	}

	history := make([]models.MonthlySpend, 0, len(totals))
	for key, total := range totals {
		history = append(history, models.MonthlySpend{Year: key.year, Month: key.month, Total: total})
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year > history[j].Year
		}
		return history[i].Month > history[j].Month
	})
	return history, nil
}
