package models

import "github.com/shopspring/decimal"

// Dashboard представляет сводку по аукционам заказчика.
type Dashboard struct {
	Open              int             `json:"open"`
	SecondPhase       int             `json:"secondPhase"`
	Closed            int             `json:"closed"`
	Overdue           int             `json:"overdue"`
	ClosedBySegment   []SegmentCount  `json:"closedBySegment"`
	CurrentMonthSpend decimal.Decimal `json:"currentMonthSpend"`
	SpendHistory      []MonthlySpend  `json:"spendHistory"`
}

// SegmentCount - количество закрытых аукционов в сегменте.
type SegmentCount struct {
	Segment string `json:"segment"`
	Count   int    `json:"count"`
}

// MonthlySpend - расходы заказчика за календарный месяц.
type MonthlySpend struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}
