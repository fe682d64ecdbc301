package rollup

import (
	"sort"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// BuildMetrics computes the aggregate totals of one key's buckets and lists
// the per-year values newest first.
func BuildMetrics(buckets YearBuckets) entity.Metrics {
	years := make([]int, 0, len(buckets))
	for y := range buckets {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	m := entity.Metrics{Years: make([]entity.YearMetrics, 0, len(years))}
	for _, y := range years {
		b := buckets[y]
		m.NumAwards += b.Count
		m.AmtAwarded += b.Amount
		m.Years = append(m.Years, entity.YearMetrics{
			Year:       y,
			NumAwards:  b.Count,
			AmtAwarded: b.Amount,
		})
	}
	return m
}
