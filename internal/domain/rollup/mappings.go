package rollup

import (
	"sort"
	"strings"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// OfficeOfTheDirector is the abbreviation of the directorate whose division
// pages do not follow the record data.
const OfficeOfTheDirector = "OD"

// officeOfTheDirectorDivisions replaces whatever OD combos the records carry.
var officeOfTheDirectorDivisions = []string{
	"EOD",  // Executive Office of the Director
	"OCR",  // Office of Civil Rights
	"OIA",  // Office of Integrative Activities
	"OISE", // Office of International Science and Engineering
	"OLPA", // Office of Legislative and Public Affairs
	"OGC",  // Office of the General Counsel
	"CRSP", // Office of the Chief of Research Security Strategy and Policy
}

// BuildMappings derives the long-name to abbreviation maps and the division
// page combos from the records. Later records win when a name maps to more
// than one abbreviation.
func BuildMappings(records []entity.AwardRecord) entity.AbbreviationMaps {
	maps := entity.AbbreviationMaps{
		Directorates: map[string]string{},
		Divisions:    map[string]string{},
		Programs:     map[string]string{},
	}
	combos := map[entity.DivisionCombo]struct{}{}

	for _, r := range records {
		dirAbbr := strings.ReplaceAll(strings.TrimSpace(r.DirectorateAbbr), "/", "")
		divAbbr := strings.TrimSpace(r.DivisionAbbr)

		maps.Directorates[strings.TrimSpace(r.Directorate)] = dirAbbr
		maps.Divisions[strings.TrimSpace(r.Division)] = divAbbr
		maps.Programs[strings.TrimSpace(r.Program)] = strings.TrimSpace(r.ProgramCode)

		if dirAbbr != divAbbr && dirAbbr != OfficeOfTheDirector {
			combos[entity.DivisionCombo{DirectorateAbbr: dirAbbr, DivisionAbbr: divAbbr}] = struct{}{}
		}
	}

	for _, div := range officeOfTheDirectorDivisions {
		combos[entity.DivisionCombo{DirectorateAbbr: OfficeOfTheDirector, DivisionAbbr: div}] = struct{}{}
	}

	maps.Combos = make([]entity.DivisionCombo, 0, len(combos))
	for c := range combos {
		maps.Combos = append(maps.Combos, c)
	}
	sort.Slice(maps.Combos, func(i, j int) bool {
		a, b := maps.Combos[i], maps.Combos[j]
		if a.DirectorateAbbr != b.DirectorateAbbr {
			return a.DirectorateAbbr < b.DirectorateAbbr
		}
		return a.DivisionAbbr < b.DivisionAbbr
	})

	return maps
}
