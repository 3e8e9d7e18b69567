package results

import (
	"sort"

	"github.com/desertthunder/marksheet/internal/models"
)

// Aggregate buckets entries by their (student, term) key. Entries whose student
// cannot be resolved are still grouped by their raw student reference.
func Aggregate(entries []models.MarkEntry) map[models.ResultKey][]models.MarkEntry {
	groups := make(map[models.ResultKey][]models.MarkEntry)
	for _, e := range entries {
		k := e.Key()
		groups[k] = append(groups[k], e)
	}
	return groups
}

// Group aggregates entries into result sets ordered by student, then term. Entries
// inside a set are ordered by subject, then id, so the output does not depend on the
// order of the input.
func Group(entries []models.MarkEntry) []models.ResultSet {
	groups := Aggregate(entries)

	sets := make([]models.ResultSet, 0, len(groups))
	for k, es := range groups {
		sort.Slice(es, func(i, j int) bool {
			if es[i].Subject != es[j].Subject {
				return es[i].Subject < es[j].Subject
			}
			return es[i].ID < es[j].ID
		})
		sets = append(sets, models.ResultSet{Key: k, Entries: es})
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Key.Less(sets[j].Key) })
	return sets
}
