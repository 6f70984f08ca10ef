package services

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/notify"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/utils"

	"github.com/shopspring/decimal"
)

// IntentQueue принимает намерения уведомить. Реализуется notify.Dispatcher.
type IntentQueue interface {
	Enqueue(ctx context.Context, intents ...notify.Intent)
}

// Config - параметры правил аукциона.
type Config struct {
	FeeRate        decimal.Decimal
	MinClosingDays int
	Location       *time.Location
	Now            func() time.Time
}

// DefaultFeeRate - комиссия площадки по умолчанию.
var DefaultFeeRate = decimal.RequireFromString("0.10")

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MinClosingDays < 0 {
		c.MinClosingDays = 0
	}
	return c
}

func (c Config) now() time.Time {
	return c.Now().In(c.Location)
}

func (c Config) today() time.Time {
	return utils.StartOfDay(c.now(), c.Location)
}

// storeError переводит ошибки хранилища в доменные. Прочие ошибки возвращаются как есть.
func storeError(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError(notFound)
	case errors.Is(err, repository.ErrConflict):
		return models.NewConflictError(conflict)
	}
	return err
}

// concurrentChange - ответ, когда аукцион изменили параллельно.
const concurrentChange = "auction was changed concurrently, try again"

// InternalError - сообщение для ошибок инфраструктуры, которые не раскрываются клиенту.
const InternalError = "internal server error"
