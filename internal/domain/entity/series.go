package entity

// FundingPoint is one program's awarded amount for one year, used by the
// console charts.
type FundingPoint struct {
	Directorate string
	Division    string
	Program     string
	Year        int
	Amount      float64
}

// RankedAmount is a labelled total used for bar charts.
type RankedAmount struct {
	Label  string
	Amount float64
}
