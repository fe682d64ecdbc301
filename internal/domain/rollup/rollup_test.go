package rollup

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(year int, dir, div, prog string, amount float64) entity.AwardRecord {
	return entity.AwardRecord{Year: year, Directorate: dir, Division: div, Program: prog, Amount: amount}
}

// lookup follows a path of names from the tree root.
func lookup(tree entity.Tree, path ...string) (entity.Node, bool) {
	var node entity.Node
	ok := len(path) > 0
	for i, name := range path {
		if !ok {
			break
		}
		if i == 0 {
			node, ok = tree.Get(name)
		} else {
			node, ok = node.Children.Get(name)
		}
	}
	return node, ok
}

func exampleRecords() []entity.AwardRecord {
	return []entity.AwardRecord{
		rec(2020, "BIO", "MCB", "Genetics", 100),
		rec(2021, "BIO", "MCB", "Genetics", 50),
		rec(2020, "CSE", "CCF", "Algorithms", 200),
	}
}

func randomRecords(n int) []entity.AwardRecord {
	rng := rand.New(rand.NewSource(42))
	dirs := []string{"BIO", "CSE", "GEO", "MPS"}
	divs := []string{"D1", "D2", "D3"}
	progs := []string{"P1", "P2", "P3", "P4"}

	records := make([]entity.AwardRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, rec(
			2015+rng.Intn(8),
			dirs[rng.Intn(len(dirs))],
			divs[rng.Intn(len(divs))],
			progs[rng.Intn(len(progs))],
			math.Round(rng.Float64()*100000)/100,
		))
	}
	return records
}

func nodesAtDepth(tree entity.Tree, depth int) []entity.Node {
	var nodes []entity.Node
	tree.Walk(func(path []string, node entity.Node) {
		if len(path) == depth {
			nodes = append(nodes, node)
		}
	})
	return nodes
}

func TestBuildHierarchy_Example(t *testing.T) {
	tree := BuildHierarchy(exampleRecords())

	bio, ok := tree.Get("BIO")
	require.True(t, ok)
	assert.Equal(t, 2, bio.Metrics.NumAwards)
	assert.Equal(t, 150.0, bio.Metrics.AmtAwarded)

	genetics, ok := lookup(tree, "BIO", "MCB", "Genetics")
	require.True(t, ok)
	y2020, ok := genetics.Metrics.Year(2020)
	require.True(t, ok)
	assert.Equal(t, 100.0, y2020.AmtAwarded)
	assert.Equal(t, 1, y2020.NumAwards)

	assert.Equal(t, []string{"CSE", "BIO"}, Sort(tree, ByAggregate).Names())
	assert.Equal(t, []string{"BIO", "CSE"}, Sort(tree, ByYear(2021)).Names())
}

func TestBuildMetrics_OrdersYearsDescending(t *testing.T) {
	m := BuildMetrics(YearBuckets{
		2019: {Count: 1, Amount: 10},
		2022: {Count: 2, Amount: 5.5},
		2020: {Count: 3, Amount: 1},
	})

	assert.Equal(t, 6, m.NumAwards)
	assert.Equal(t, 16.5, m.AmtAwarded)
	require.Len(t, m.Years, 3)
	assert.Equal(t, 2022, m.Years[0].Year)
	assert.Equal(t, 2020, m.Years[1].Year)
	assert.Equal(t, 2019, m.Years[2].Year)
}

func TestAccumulate_CountsDuplicatesAtEveryLevel(t *testing.T) {
	r := rec(2020, "BIO", "MCB", "Genetics", 10)
	acc := Accumulate([]entity.AwardRecord{r, r})

	assert.Equal(t, Bucket{Count: 2, Amount: 20}, acc.Programs[GroupKey{"BIO", "MCB", "Genetics"}][2020])
	assert.Equal(t, Bucket{Count: 2, Amount: 20}, acc.Divisions[GroupKey{Directorate: "BIO", Division: "MCB"}][2020])
	assert.Equal(t, Bucket{Count: 2, Amount: 20}, acc.Directorates[GroupKey{Directorate: "BIO"}][2020])
	assert.Equal(t, []string{"MCB"}, acc.DirectorateDivisions.Children(GroupKey{Directorate: "BIO"}))
	assert.Equal(t, []string{"Genetics"}, acc.DivisionPrograms.Children(GroupKey{Directorate: "BIO", Division: "MCB"}))
}

func TestAccumulate_KeepsSameNamedDivisionsApart(t *testing.T) {
	tree := BuildHierarchy([]entity.AwardRecord{
		rec(2020, "BIO", "Shared", "P", 10),
		rec(2020, "CSE", "Shared", "P", 30),
	})

	bio, ok := lookup(tree, "BIO", "Shared", "P")
	require.True(t, ok)
	cse, ok := lookup(tree, "CSE", "Shared", "P")
	require.True(t, ok)
	assert.Equal(t, 10.0, bio.Metrics.AmtAwarded)
	assert.Equal(t, 30.0, cse.Metrics.AmtAwarded)
}

func TestAssemble_FirstSeenOrder(t *testing.T) {
	tree := BuildHierarchy([]entity.AwardRecord{
		rec(2020, "GEO", "EAR", "P2", 1),
		rec(2020, "BIO", "MCB", "P1", 1),
		rec(2020, "GEO", "AGS", "P1", 1),
		rec(2020, "GEO", "EAR", "P1", 1),
	})

	assert.Equal(t, []string{"GEO", "BIO"}, tree.Names())
	geo, _ := tree.Get("GEO")
	assert.Equal(t, []string{"EAR", "AGS"}, geo.Children.Names())
	ear, _ := geo.Children.Get("EAR")
	assert.Equal(t, []string{"P2", "P1"}, ear.Children.Names())
}

func TestConservation(t *testing.T) {
	records := randomRecords(500)
	tree := BuildHierarchy(records)

	var wantAmount float64
	for _, r := range records {
		wantAmount += r.Amount
	}

	for depth := 1; depth <= 3; depth++ {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			var count int
			var amount float64
			for _, node := range nodesAtDepth(tree, depth) {
				count += node.Metrics.NumAwards
				amount += node.Metrics.AmtAwarded
			}
			assert.Equal(t, len(records), count)
			assert.InDelta(t, wantAmount, amount, 1e-6)
		})
	}
}

func TestAggregateEqualsSumOfYears(t *testing.T) {
	tree := BuildHierarchy(randomRecords(300))

	tree.Walk(func(path []string, node entity.Node) {
		var count int
		var amount float64
		for _, ym := range node.Metrics.Years {
			count += ym.NumAwards
			amount += ym.AmtAwarded
		}
		assert.Equal(t, node.Metrics.NumAwards, count, path)
		assert.InDelta(t, node.Metrics.AmtAwarded, amount, 1e-6, path)
	})
}

func TestBrief(t *testing.T) {
	tree := BuildHierarchy(exampleRecords())
	brief := Brief(tree)

	brief.Walk(func(path []string, node entity.Node) {
		assert.Empty(t, node.Metrics.Years, path)
		assert.NotZero(t, node.Metrics.AmtAwarded, path)
	})

	bio, ok := brief.Get("BIO")
	require.True(t, ok)
	assert.Equal(t, 2, bio.Metrics.NumAwards)
	assert.Equal(t, 150.0, bio.Metrics.AmtAwarded)

	_, ok = lookup(brief, "BIO", "MCB", "Genetics")
	assert.True(t, ok)

	assert.Equal(t, brief, Brief(brief))
}

func TestBrief_DoesNotTouchSource(t *testing.T) {
	tree := BuildHierarchy(exampleRecords())
	_ = Brief(tree)

	bio, _ := tree.Get("BIO")
	assert.Len(t, bio.Metrics.Years, 2)
}

func TestBriefNode_KeepsEmptyChildren(t *testing.T) {
	node := entity.Node{
		Children: entity.Tree{
			{Name: "only-years", Node: entity.Node{Metrics: entity.Metrics{Years: []entity.YearMetrics{{Year: 2020, NumAwards: 1, AmtAwarded: 5}}}}},
		},
	}

	brief := BriefNode(node)
	require.Len(t, brief.Children, 1)
	assert.Equal(t, "only-years", brief.Children[0].Name)
	assert.Empty(t, brief.Children[0].Node.Metrics.Years)
}

func assertSortedDescending(t *testing.T, tree entity.Tree, by OrderBy) {
	t.Helper()
	for i := 1; i < len(tree); i++ {
		assert.GreaterOrEqual(t, by(tree[i-1].Node.Metrics), by(tree[i].Node.Metrics),
			"%s before %s", tree[i-1].Name, tree[i].Name)
	}
	for _, nn := range tree {
		assertSortedDescending(t, nn.Node.Children, by)
	}
}

func TestSort(t *testing.T) {
	tree := BuildHierarchy(randomRecords(400))

	cases := map[string]OrderBy{
		"aggregate": ByAggregate,
		"year 2018": ByYear(2018),
		"no data":   ByYear(1900),
	}

	for name, by := range cases {
		t.Run(name, func(t *testing.T) {
			sorted := Sort(tree, by)
			assertSortedDescending(t, sorted, by)
			assert.Equal(t, sorted, Sort(sorted, by))
		})
	}
}

func TestSort_BriefTree(t *testing.T) {
	brief := Sort(Brief(BuildHierarchy(randomRecords(200))), ByAggregate)
	assertSortedDescending(t, brief, ByAggregate)
}

func TestSort_UnknownYearKeepsMembershipOrder(t *testing.T) {
	tree := BuildHierarchy(randomRecords(200))
	sorted := Sort(tree, ByYear(1900))

	assert.Equal(t, tree.Names(), sorted.Names())
	for _, nn := range tree {
		got, ok := sorted.Get(nn.Name)
		require.True(t, ok)
		assert.Equal(t, nn.Node.Children.Names(), got.Children.Names())
	}
}

func TestSort_TiesKeepInputOrder(t *testing.T) {
	tree := BuildHierarchy([]entity.AwardRecord{
		rec(2020, "A", "X", "P", 10),
		rec(2020, "B", "X", "P", 20),
		rec(2020, "C", "X", "P", 10),
	})

	assert.Equal(t, []string{"B", "A", "C"}, Sort(tree, ByAggregate).Names())
}

func TestSort_DoesNotTouchSource(t *testing.T) {
	tree := BuildHierarchy(exampleRecords())
	before := tree.Names()

	sorted := Sort(tree, ByAggregate)
	sorted[0].Node.Metrics.Years[0].AmtAwarded = -1

	assert.Equal(t, before, tree.Names())
	cse, _ := tree.Get("CSE")
	assert.Equal(t, 200.0, cse.Metrics.Years[0].AmtAwarded)
}

func TestEmptyInput(t *testing.T) {
	tree := BuildHierarchy(nil)

	assert.Empty(t, tree)
	assert.Empty(t, Brief(tree))
	assert.Empty(t, Sort(tree, ByAggregate))
	assert.Empty(t, Sort(tree, ByYear(2020)))
	assert.Empty(t, ExtractTaxonomy(tree))
	assert.Empty(t, FlattenFunding(tree))
}
