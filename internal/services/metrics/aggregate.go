// Package metrics provides the generic aggregation primitives reports
// are assembled from: distributions, rates, filtered averages,
// day-bucketed trends, and deterministic top-N selection.
package metrics

import (
	"math"
	"sort"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// Distribution groups records by keyFn and returns one bucket per key
// with its count and percentage share, ordered by descending count and by
// key for equal counts. An empty input yields an empty result, never a
// list of zero-percentage buckets. Key functions should map absent
// associations to models.UnknownKey so bucket counts reconcile with the
// total.
func Distribution[T any](records []T, keyFn func(T) string) []models.AggregateBucket {
	if len(records) == 0 {
		return []models.AggregateBucket{}
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[keyFn(r)]++
	}

	total := len(records)
	buckets := make([]models.AggregateBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, models.AggregateBucket{
			Key:        key,
			Count:      count,
			Percentage: round2(float64(count) / float64(total) * 100),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// ComplianceRate returns the percentage of records matching pred. An
// empty population is vacuously compliant, so the empty-input value is
// 100.
func ComplianceRate[T any](records []T, pred func(T) bool) float64 {
	return rate(records, pred, 100)
}

// IncidenceRate returns the percentage of records matching pred. An
// empty population has no incidents, so the empty-input value is 0.
func IncidenceRate[T any](records []T, pred func(T) bool) float64 {
	return rate(records, pred, 0)
}

// The two empty-population defaults above are deliberately different and
// chosen per metric, never uniformly.
func rate[T any](records []T, pred func(T) bool, empty float64) float64 {
	if len(records) == 0 {
		return empty
	}
	matched := 0
	for _, r := range records {
		if pred(r) {
			matched++
		}
	}
	return round2(float64(matched) / float64(len(records)) * 100)
}

// Average returns the mean of valueFn over records passing filterFn, or 0
// when none pass. A nil filterFn accepts everything. Duration averages
// pass an outlier filter here; the records themselves stay in every
// count.
func Average[T any](records []T, valueFn func(T) float64, filterFn func(T) bool) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if filterFn != nil && !filterFn(r) {
			continue
		}
		sum += valueFn(r)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TopN returns up to n records ordered by descending score. Equal scores
// break ties by ascending id so rankings are deterministic run to run.
// The input slice is not modified.
func TopN[T any](records []T, scoreFn func(T) float64, idFn func(T) string, n int) []T {
	if n <= 0 || len(records) == 0 {
		return []T{}
	}

	sorted := make([]T, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := scoreFn(sorted[i]), scoreFn(sorted[j])
		if si != sj {
			return si > sj
		}
		return idFn(sorted[i]) < idFn(sorted[j])
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
