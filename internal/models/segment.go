package models

import "github.com/google/uuid"

// Segment представляет рыночный сегмент (нишу).
type Segment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SegmentNames возвращает имена сегментов в том же порядке.
func SegmentNames(segments []Segment) []string {
	names := make([]string, 0, len(segments))
	for _, s := range segments {
		names = append(names, s.Name)
	}
	return names
}

// SegmentIDs возвращает идентификаторы сегментов в том же порядке.
func SegmentIDs(segments []Segment) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(segments))
	for _, s := range segments {
		ids = append(ids, s.ID)
	}
	return ids
}
