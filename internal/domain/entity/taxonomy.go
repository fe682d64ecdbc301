package entity

// DivisionPrograms lists the programs of one division.
type DivisionPrograms struct {
	Division string
	Programs []string
}

// TaxonomyEntry lists the divisions of one directorate.
type TaxonomyEntry struct {
	Directorate string
	Divisions   []DivisionPrograms
}

// Taxonomy is the directorate -> division -> [program] outline of a hierarchy.
type Taxonomy []TaxonomyEntry

// Rows flattens the taxonomy into (directorate, division, program) triples.
func (t Taxonomy) Rows() [][3]string {
	var rows [][3]string
	for _, entry := range t {
		for _, div := range entry.Divisions {
			for _, program := range div.Programs {
				rows = append(rows, [3]string{entry.Directorate, div.Division, program})
			}
		}
	}
	return rows
}

// MarshalJSON writes the taxonomy as nested objects in order, with program
// names as arrays.
func (t Taxonomy) MarshalJSON() ([]byte, error) {
	obj := newObjectWriter()
	for _, entry := range t {
		obj.field(entry.Directorate, divisionList(entry.Divisions))
	}
	return obj.bytes()
}

type divisionList []DivisionPrograms

func (d divisionList) MarshalJSON() ([]byte, error) {
	obj := newObjectWriter()
	for _, div := range d {
		programs := div.Programs
		if programs == nil {
			programs = []string{}
		}
		obj.field(div.Division, programs)
	}
	return obj.bytes()
}
