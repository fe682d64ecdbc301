package rollup

import "github.com/diillson/nsf-awards-rollup/internal/domain/entity"

// GroupKey identifies a bucket. Division and Program are empty at the coarser
// granularities.
type GroupKey struct {
	Directorate string
	Division    string
	Program     string
}

// Bucket is the running award count and amount for one (key, year) pair.
type Bucket struct {
	Count  int
	Amount float64
}

// YearBuckets maps year to bucket for a single key.
type YearBuckets map[int]Bucket

// BucketMap holds the year buckets of every key at one granularity.
type BucketMap map[GroupKey]YearBuckets

// Add inserts the (key, year) bucket if missing and adds one award of the
// given amount to it.
func (m BucketMap) Add(key GroupKey, year int, amount float64) {
	years, ok := m[key]
	if !ok {
		years = make(YearBuckets)
		m[key] = years
	}

	b, ok := years[year]
	if !ok {
		b = Bucket{}
	}
	b.Count++
	b.Amount += amount
	years[year] = b
}

// Membership is an insertion-ordered parent -> set of child names.
type Membership struct {
	parents  []GroupKey
	children map[GroupKey][]string
	seen     map[GroupKey]map[string]struct{}
}

// NewMembership returns an empty membership set.
func NewMembership() *Membership {
	return &Membership{
		children: make(map[GroupKey][]string),
		seen:     make(map[GroupKey]map[string]struct{}),
	}
}

// Add records child under parent. Repeated adds are no-ops.
func (m *Membership) Add(parent GroupKey, child string) {
	set, ok := m.seen[parent]
	if !ok {
		set = make(map[string]struct{})
		m.seen[parent] = set
		m.parents = append(m.parents, parent)
	}
	if _, dup := set[child]; dup {
		return
	}
	set[child] = struct{}{}
	m.children[parent] = append(m.children[parent], child)
}

// Parents returns the parents in first-seen order.
func (m *Membership) Parents() []GroupKey {
	return m.parents
}

// Children returns the children of parent in first-seen order.
func (m *Membership) Children(parent GroupKey) []string {
	return m.children[parent]
}

// Accumulation is the state produced by one pass over the records.
type Accumulation struct {
	Directorates BucketMap
	Divisions    BucketMap
	Programs     BucketMap

	// DirectorateDivisions is keyed by directorate-level keys,
	// DivisionPrograms by division-level keys.
	DirectorateDivisions *Membership
	DivisionPrograms     *Membership
}

// NewAccumulation returns empty accumulator state.
func NewAccumulation() *Accumulation {
	return &Accumulation{
		Directorates:         make(BucketMap),
		Divisions:            make(BucketMap),
		Programs:             make(BucketMap),
		DirectorateDivisions: NewMembership(),
		DivisionPrograms:     NewMembership(),
	}
}

// Add folds one record into all three granularities.
func (a *Accumulation) Add(r entity.AwardRecord) {
	dirKey := GroupKey{Directorate: r.Directorate}
	divKey := GroupKey{Directorate: r.Directorate, Division: r.Division}
	progKey := GroupKey{Directorate: r.Directorate, Division: r.Division, Program: r.Program}

	a.DirectorateDivisions.Add(dirKey, r.Division)
	a.DivisionPrograms.Add(divKey, r.Program)

	a.Programs.Add(progKey, r.Year, r.Amount)
	a.Divisions.Add(divKey, r.Year, r.Amount)
	a.Directorates.Add(dirKey, r.Year, r.Amount)
}

// Accumulate groups the records by directorate, division and program and by
// year.
func Accumulate(records []entity.AwardRecord) *Accumulation {
	acc := NewAccumulation()
	for _, r := range records {
		acc.Add(r)
	}
	return acc
}
