package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uuidArray готовит список идентификаторов для параметра $n::uuid[].
func uuidArray(ids []uuid.UUID) any {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return pq.Array(values)
}

// lowerArray готовит список имён для сравнения без учёта регистра.
func lowerArray(names []string) any {
	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, strings.ToLower(strings.TrimSpace(name)))
	}
	return pq.Array(values)
}

// limitArg переводит limit <= 0 в NULL, то есть LIMIT ALL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
