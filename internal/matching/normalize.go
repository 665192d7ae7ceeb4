package matching

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// The 1C warehouse reports carry a title block above the column header and a
// units row directly below it, then a grand-total row at the bottom.
const (
	reportHeaderRow = 4
	reportDataRow   = 6
)

// Column names as they appear in the exported reports.
const (
	colRequest      = "Заявка на відвантаження"
	colNomenclature = "Номенклатура"
	colPartyAttr    = "Ознака партії"
	colSeason       = "Сезон закупівлі"
	colOrderedQty   = "Кількість"
	colMovedQty     = "Количество"
	colPartySign    = "Партія номенклатури"
	colBusinessLine = "Напрям діяльності"
)

var (
	requestIDPattern = regexp.MustCompile(`[А-Я]{2}-\d{8}`)
	datePattern      = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	noteColPattern   = regexp.MustCompile(`^Примечание_\d+$`)
)

// table is a header-addressed view over the raw sheet rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

// newTable cuts the title block off a raw report, disambiguates duplicated
// header names by suffixing the column position, and drops the trailing
// grand-total row along with columns that are entirely empty.
func newTable(file string, rows [][]string) (*table, error) {
	if len(rows) <= reportDataRow {
		return nil, &ParseError{File: file, Detail: fmt.Sprintf("expected header at row %d and data from row %d, got %d rows", reportHeaderRow+1, reportDataRow+1, len(rows))}
	}
	header := rows[reportHeaderRow]
	data := rows[reportDataRow:]
	if len(data) > 0 {
		data = data[:len(data)-1] // grand-total row
	}

	width := len(header)
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return nil, &ParseError{File: file, Detail: "empty header row"}
	}

	keep := make([]int, 0, width)
	for c := 0; c < width; c++ {
		empty := cell(header, c) == ""
		for _, r := range data {
			if !empty {
				break
			}
			empty = cell(r, c) == ""
		}
		if !empty {
			keep = append(keep, c)
		}
	}

	columns := make(map[string]int, len(keep))
	for i, c := range keep {
		name := strings.TrimSpace(cell(header, c))
		if _, dup := columns[name]; dup {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		columns[name] = i
	}

	packed := make([][]string, len(data))
	for i, r := range data {
		row := make([]string, len(keep))
		for j, c := range keep {
			row[j] = strings.TrimSpace(cell(r, c))
		}
		packed[i] = row
	}
	return &table{columns: columns, rows: packed}, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func (t *table) col(name string) (int, bool) {
	i, ok := t.columns[name]
	return i, ok
}

func (t *table) mustCol(file, name string) (int, error) {
	if i, ok := t.columns[name]; ok {
		return i, nil
	}
	return 0, &ParseError{File: file, Detail: fmt.Sprintf("missing column %q", name)}
}

// noteCol finds the duplicated "Примечание" column, which after
// disambiguation carries the request-level annotation with the contract
// fragments. The first, per-row "Примечание" column is ignored.
func (t *table) noteCol() (int, bool) {
	for name, i := range t.columns {
		if noteColPattern.MatchString(name) {
			return i, true
		}
	}
	return 0, false
}

// parseQuantity coerces a report cell to a decimal. The exports use comma as
// the decimal separator and non-breaking spaces as thousands grouping.
func parseQuantity(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// product synthesizes the composite product key from nomenclature, batch
// sign and buying season, with single-space separators.
func product(nomenclature, partyAttr, season string) string {
	return nomenclature + " " + partyAttr + " " + season
}

// NormalizeOrdered converts the raw "Заказано" report into ordered rows.
// Rows whose annotated request string does not contain a request id keep an
// empty RequestID and are excluded later at the join.
func NormalizeOrdered(rows [][]string) ([]OrderedRow, error) {
	const file = "ordered"
	t, err := newTable(file, rows)
	if err != nil {
		return nil, err
	}
	reqCol, err := t.mustCol(file, colRequest)
	if err != nil {
		return nil, err
	}
	nomCol, err := t.mustCol(file, colNomenclature)
	if err != nil {
		return nil, err
	}
	attrCol, err := t.mustCol(file, colPartyAttr)
	if err != nil {
		return nil, err
	}
	seasonCol, err := t.mustCol(file, colSeason)
	if err != nil {
		return nil, err
	}
	qtyCol, err := t.mustCol(file, colOrderedQty)
	if err != nil {
		return nil, err
	}
	noteCol, hasNote := t.noteCol()

	out := make([]OrderedRow, 0, len(t.rows))
	for _, r := range t.rows {
		raw := cell(r, reqCol)
		row := OrderedRow{
			RequestID: requestIDPattern.FindString(raw),
			Date:      datePattern.FindString(raw),
			Product:   product(cell(r, nomCol), cell(r, attrCol), cell(r, seasonCol)),
		}
		if qty, ok := parseQuantity(cell(r, qtyCol)); ok {
			row.Ordered = qty
		}
		if hasNote {
			row.Note = cell(r, noteCol)
		}
		out = append(out, row)
	}
	return out, nil
}

// NormalizeMoved converts the raw "Перемещено" report into moved rows. Rows
// whose moved quantity does not coerce to a number, or whose party sign is
// empty, are structurally invalid and dropped. Every returned row has a
// positive moved quantity, a non-empty party sign and a product key.
func NormalizeMoved(rows [][]string) ([]MovedRow, error) {
	const file = "moved"
	t, err := newTable(file, rows)
	if err != nil {
		return nil, err
	}
	reqCol, err := t.mustCol(file, colRequest)
	if err != nil {
		return nil, err
	}
	nomCol, err := t.mustCol(file, colNomenclature)
	if err != nil {
		return nil, err
	}
	attrCol, err := t.mustCol(file, colPartyAttr)
	if err != nil {
		return nil, err
	}
	seasonCol, err := t.mustCol(file, colSeason)
	if err != nil {
		return nil, err
	}
	qtyCol, err := t.mustCol(file, colMovedQty)
	if err != nil {
		return nil, err
	}
	partyCol, err := t.mustCol(file, colPartySign)
	if err != nil {
		return nil, err
	}
	lobCol, hasLOB := t.col(colBusinessLine)

	out := make([]MovedRow, 0, len(t.rows))
	for _, r := range t.rows {
		qty, ok := parseQuantity(cell(r, qtyCol))
		if !ok || !qty.IsPositive() {
			continue
		}
		party := cell(r, partyCol)
		if party == "" {
			continue
		}
		raw := cell(r, reqCol)
		row := MovedRow{
			RequestID: requestIDPattern.FindString(raw),
			Date:      datePattern.FindString(raw),
			Product:   product(cell(r, nomCol), cell(r, attrCol), cell(r, seasonCol)),
			PartySign: party,
			Moved:     qty,
		}
		if hasLOB {
			row.LineOfBusiness = cell(r, lobCol)
		}
		out = append(out, row)
	}
	return out, nil
}
