package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/utils"

	"github.com/google/uuid"
)

// SegmentService сопоставляет названия сегментов с записями хранилища.
type SegmentService struct {
	Store repository.Store
}

// NewSegmentService создаёт новый экземпляр SegmentService.
func NewSegmentService(store repository.Store) *SegmentService {
	return &SegmentService{Store: store}
}

// List возвращает все сегменты по алфавиту.
func (s *SegmentService) List(ctx context.Context) ([]models.Segment, error) {
	segments, err := s.Store.Segments().List(ctx)
	if err != nil {
		return nil, err
	}
	if segments == nil {
		segments = []models.Segment{}
	}
	return segments, nil
}

// Resolve находит существующие сегменты по названиям без учёта регистра.
// Неизвестное название - ошибка NotFound.
func (s *SegmentService) Resolve(ctx context.Context, repos repository.Repositories, names []string) ([]models.Segment, error) {
	names = utils.NormalizeNames(names)
	if len(names) == 0 {
		return nil, models.NewValidationError("at least one segment is required")
	}

	segments, err := repos.Segments().ListByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		found[strings.ToLower(seg.Name)] = struct{}{}
	}
	for _, name := range names {
		if _, ok := found[strings.ToLower(name)]; !ok {
			return nil, models.NewNotFoundError(fmt.Sprintf("segment not found: %s", name))
		}
	}
	return segments, nil
}

// Ensure возвращает сегменты по названиям, создавая недостающие.
func (s *SegmentService) Ensure(ctx context.Context, repos repository.Repositories, names []string) ([]models.Segment, error) {
	names = utils.NormalizeNames(names)
	segments := make([]models.Segment, 0, len(names))
	for _, name := range names {
		seg, err := repos.Segments().GetByName(ctx, name)
		if err == nil {
			segments = append(segments, *seg)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		created := models.Segment{ID: uuid.New(), Name: name}
		if err := repos.Segments().Create(ctx, &created); err != nil {
			return nil, storeError(err, "segment not found", "segment was created concurrently, try again")
		}
		segments = append(segments, created)
	}
	return segments, nil
}
