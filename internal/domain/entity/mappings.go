package entity

import "fmt"

// DivisionCombo is a (directorate abbreviation, division abbreviation) pair
// that has its own page on nsf.gov.
type DivisionCombo struct {
	DirectorateAbbr string
	DivisionAbbr    string
}

// URL returns the division landing page.
func (c DivisionCombo) URL() string {
	return fmt.Sprintf("https://www.nsf.gov/%s/%s", c.DirectorateAbbr, c.DivisionAbbr)
}

// AbbreviationMaps holds the long-name to abbreviation lookups derived from
// the parsed records.
type AbbreviationMaps struct {
	Directorates map[string]string `json:"directorates"`
	Divisions    map[string]string `json:"divisions"`
	Programs     map[string]string `json:"programs"`
	Combos       []DivisionCombo   `json:"combos"`
}

// DivisionInfo is the enriched division_map.json entry written after mission
// statements have been scraped. Mission is nil when the division page had no
// mission block, and may point to "" when the block had no text.
type DivisionInfo struct {
	Abbr    string  `json:"abbr"`
	Mission *string `json:"mission,omitempty"`
}
