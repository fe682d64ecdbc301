package entity

// AwardRecord is one flat funding record. A single award document yields one
// record per program element it is charged to.
type AwardRecord struct {
	Year            int     `json:"year"`
	DirectorateAbbr string  `json:"dir_abbr"`
	Directorate     string  `json:"directorate"`
	DivisionAbbr    string  `json:"div_abbr"`
	Division        string  `json:"division"`
	Program         string  `json:"program"`
	ProgramCode     string  `json:"pgm_code"`
	Amount          float64 `json:"amount"`
}

// AwardField is a single named column of a flattened award document.
type AwardField struct {
	Name  string
	Value string
}

// AwardRow is a flattened award document with a stable column order.
type AwardRow []AwardField

// Header returns the column names of the row in order.
func (r AwardRow) Header() []string {
	header := make([]string, len(r))
	for i, f := range r {
		header[i] = f.Name
	}
	return header
}

// Values returns the row values aligned to header. Columns missing from the
// row are written as empty strings.
func (r AwardRow) Values(header []string) []string {
	byName := make(map[string]string, len(r))
	for _, f := range r {
		byName[f.Name] = f.Value
	}
	values := make([]string, len(header))
	for i, name := range header {
		values[i] = byName[name]
	}
	return values
}
