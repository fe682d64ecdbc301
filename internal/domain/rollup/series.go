package rollup

import (
	"sort"
	"strconv"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// FlattenFunding lists the per-year awarded amount of every program in tree.
// Brief trees have no per-year data and flatten to nothing.
func FlattenFunding(tree entity.Tree) []entity.FundingPoint {
	var points []entity.FundingPoint
	tree.Walk(func(path []string, node entity.Node) {
		if len(path) != 3 {
			return
		}
		for _, ym := range node.Metrics.Years {
			points = append(points, entity.FundingPoint{
				Directorate: path[0],
				Division:    path[1],
				Program:     path[2],
				Year:        ym.Year,
				Amount:      ym.AmtAwarded,
			})
		}
	})
	return points
}

// TopDivisions sums the points per division and returns the n largest.
// n <= 0 returns all divisions.
func TopDivisions(points []entity.FundingPoint, n int) []entity.RankedAmount {
	totals := map[string]float64{}
	var order []string
	for _, p := range points {
		if _, ok := totals[p.Division]; !ok {
			order = append(order, p.Division)
		}
		totals[p.Division] += p.Amount
	}

	ranked := make([]entity.RankedAmount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, entity.RankedAmount{Label: name, Amount: totals[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TotalsByYear sums the points per year, oldest first.
func TotalsByYear(points []entity.FundingPoint) []entity.RankedAmount {
	totals := map[int]float64{}
	for _, p := range points {
		totals[p.Year] += p.Amount
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]entity.RankedAmount, 0, len(years))
	for _, y := range years {
		out = append(out, entity.RankedAmount{Label: strconv.Itoa(y), Amount: totals[y]})
	}
	return out
}

// DirectorateYearTotals sums the points per (directorate, year). Directorates
// are returned in first-seen order and years ascending.
func DirectorateYearTotals(points []entity.FundingPoint) ([]string, []int, map[string]map[int]float64) {
	totals := map[string]map[int]float64{}
	var directorates []string
	seenYears := map[int]struct{}{}

	for _, p := range points {
		byYear, ok := totals[p.Directorate]
		if !ok {
			byYear = map[int]float64{}
			totals[p.Directorate] = byYear
			directorates = append(directorates, p.Directorate)
		}
		byYear[p.Year] += p.Amount
		seenYears[p.Year] = struct{}{}
	}

	years := make([]int, 0, len(seenYears))
	for y := range seenYears {
		years = append(years, y)
	}
	sort.Ints(years)

	return directorates, years, totals
}
