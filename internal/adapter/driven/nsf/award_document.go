package nsf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// awardDocument holds the fields of an award JSON that feed the rollup.
type awardDocument struct {
	DirAbbr         string           `json:"dir_abbr"`
	DirLongName     string           `json:"org_dir_long_name"`
	DivAbbr         string           `json:"div_abbr"`
	DivLongName     string           `json:"org_div_long_name"`
	TotalAmount     *flexAmount      `json:"tot_intn_awd_amt"`
	ProgramElements []programElement `json:"pgm_ele"`
}

type programElement struct {
	Code string `json:"pgm_ele_code"`
	Name string `json:"pgm_ele_name"`
}

// flexAmount accepts amounts written either as JSON numbers or as strings.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = flexAmount(v)
	return nil
}

// yearFromPath reads the award year from the name of the file's directory.
func yearFromPath(path string) (int, bool) {
	year, err := strconv.Atoi(filepath.Base(filepath.Dir(path)))
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseAward lê um JSON de award e retorna um registro por elemento de
// programa. Documentos sem diretoria, divisão, valor ou programas válidos
// resultam em nenhum registro e nenhum erro, assim como arquivos fora de um
// diretório de ano.
func (r *NSFRepositoryImpl) ParseAward(path string) ([]entity.AwardRecord, error) {
	year, ok := yearFromPath(path)
	if !ok {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading award file: %w", err)
	}

	var doc awardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing award file %s: %w", filepath.Base(path), err)
	}

	dirName := strings.TrimSpace(doc.DirLongName)
	divName := strings.TrimSpace(doc.DivLongName)
	if dirName == "" || divName == "" || doc.TotalAmount == nil || len(doc.ProgramElements) == 0 {
		return nil, nil
	}

	var records []entity.AwardRecord
	for _, pe := range doc.ProgramElements {
		name := strings.TrimSpace(pe.Name)
		code := strings.TrimSpace(pe.Code)
		if name == "" || code == "" {
			continue
		}
		records = append(records, entity.AwardRecord{
			Year:            year,
			DirectorateAbbr: strings.TrimSpace(doc.DirAbbr),
			Directorate:     dirName,
			DivisionAbbr:    strings.TrimSpace(doc.DivAbbr),
			Division:        divName,
			Program:         name,
			ProgramCode:     code,
			Amount:          float64(*doc.TotalAmount),
		})
	}
	return records, nil
}

// coreAwardFields are copied as-is into the award-level export.
var coreAwardFields = []string{
	"awd_id", "agcy_id", "tran_type", "awd_istr_txt", "awd_titl_txt",
	"cfda_num", "org_code", "po_phone", "po_email", "po_sign_block_name",
	"awd_eff_date", "awd_exp_date", "tot_intn_awd_amt", "awd_amount",
	"awd_min_amd_letter_date", "awd_max_amd_letter_date", "awd_abstract_narration",
	"awd_arra_amount", "dir_abbr", "org_dir_long_name", "div_abbr", "org_div_long_name",
}

// listFields flattens an array of objects into ";"-joined columns.
var listFields = []struct {
	source string
	keys   [2]string
	cols   [2]string
}{
	{"pgm_ele", [2]string{"pgm_ele_code", "pgm_ele_name"}, [2]string{"pgm_ele_codes", "pgm_ele_names"}},
	{"pgm_ref", [2]string{"pgm_ref_code", "pgm_ref_txt"}, [2]string{"pgm_ref_codes", "pgm_ref_txts"}},
}

// FlattenAward converte um JSON de award numa linha plana para o awards.csv.
func (r *NSFRepositoryImpl) FlattenAward(path string) (entity.AwardRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading award file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("error parsing award file %s: %w", filepath.Base(path), err)
	}

	row := entity.AwardRow{}
	add := func(name, value string) {
		row = append(row, entity.AwardField{Name: name, Value: value})
	}

	year := ""
	if y, ok := yearFromPath(path); ok {
		year = strconv.Itoa(y)
	}
	add("year", year)

	for _, k := range coreAwardFields {
		add(k, textOf(doc[k]))
	}

	for _, lf := range listFields {
		items := objectList(doc[lf.source])
		add(lf.cols[0], joinField(items, lf.keys[0]))
		add(lf.cols[1], joinField(items, lf.keys[1]))
	}

	for _, k := range []string{"awd_agcy_code", "fund_agcy_code"} {
		add(k, textOf(doc[k]))
	}

	pis := objectList(doc["pi"])
	add("pi_names", joinField(pis, "pi_full_name"))
	add("pi_roles", joinField(pis, "pi_role"))

	for _, prefix := range []string{"inst", "perf_inst"} {
		sub, _ := doc[prefix].(map[string]interface{})
		keys := make([]string, 0, len(sub))
		for k := range sub {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(prefix+"_"+k, textOf(sub[k]))
		}
	}

	funds := objectList(doc["app_fund"])
	add("app_fund_codes", joinField(funds, "fund_code"))
	add("app_fund_names", joinField(funds, "fund_name"))

	obligations := objectList(doc["oblg_fy"])
	add("oblg_fy_years", joinField(obligations, "fund_oblg_fiscal_yr"))
	add("oblg_fy_amts", joinField(obligations, "fund_oblg_amt"))

	return row, nil
}

func objectList(v interface{}) []map[string]interface{} {
	raw, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func joinField(items []map[string]interface{}, key string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = textOf(item[key])
	}
	return sanitize(strings.Join(parts, ";"))
}

// textOf renders a decoded JSON value as CSV text. Null and missing values
// become empty strings.
func textOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return sanitize(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return sanitize(string(b))
	}
}

// sanitize removes line breaks and collapses runs of whitespace.
func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
