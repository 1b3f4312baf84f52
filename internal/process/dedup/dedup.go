// Package dedup collapses rows that share an identity key.
package dedup

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
)

// Log key constants for deduplication.
const (
	logKeyDroppedIndex = "dropped_index"
	logKeyDuplicateOf  = "duplicate_of"
)

// Result contains the result of deduplication with metadata.
type Result[R any] struct {
	// Rows contains one row per identity, in first-seen order.
	Rows []R

	// DroppedCount is the number of rows removed as duplicates.
	DroppedCount int

	// DuplicateMap maps the input index of a dropped row to the input index of
	// the row it duplicated.
	DuplicateMap map[int]int

	// Unkeyed counts rows without a usable key. They are kept.
	Unkeyed int
}

// Stable keeps the first row of every key and drops later rows with the same
// key. Because persisted rows precede freshly merged rows, history wins ties.
// Rows for which keyOf fails cannot collide with anything and are kept in
// place.
func Stable[K comparable, R any](rows []R, keyOf identity.KeyFunc[K, R], logger *zerolog.Logger) Result[R] {
	result := Result[R]{
		Rows:         make([]R, 0, len(rows)),
		DuplicateMap: make(map[int]int),
	}

	firstAt := make(map[K]int, len(rows))

	for i, row := range rows {
		key, err := keyOf(row)
		if err != nil {
			result.Rows = append(result.Rows, row)
			result.Unkeyed++

			continue
		}

		if kept, dup := firstAt[key]; dup {
			result.DroppedCount++
			result.DuplicateMap[i] = kept

			if logger != nil {
				logger.Debug().
					Int(logKeyDroppedIndex, i).
					Int(logKeyDuplicateOf, kept).
					Str("key", fmt.Sprint(key)).
					Msg("Dropping duplicate row")
			}

			continue
		}

		firstAt[key] = i
		result.Rows = append(result.Rows, row)
	}

	return result
}

// Duplicates reports the keys that occur more than once in rows.
func Duplicates[K comparable, R any](rows []R, keyOf identity.KeyFunc[K, R]) []K {
	counts := make(map[K]int, len(rows))

	var dups []K

	for _, row := range rows {
		key, err := keyOf(row)
		if err != nil {
			continue
		}

		counts[key]++
		if counts[key] == 2 {
			dups = append(dups, key)
		}
	}

	return dups
}
