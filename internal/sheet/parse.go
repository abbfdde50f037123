// Package sheet ingests the published spreadsheet feeds: the sales ledger
// and the suggested-farms list. It tolerates header drift through per-field
// alias lists and never fails a whole parse over a malformed row.
package sheet

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/luphoeux/dantaes/internal/core"
)

// Logical fields of a ledger row. Each resolves to a column index once per
// parse, from an ordered list of header spellings seen in the wild.
const (
	fieldName = "name"
	fieldQty  = "quantity"
	fieldUnit = "unitPrice"
	fieldTot  = "total"
	fieldDate = "date"
	fieldCat  = "category"
	fieldID   = "externalId"
	fieldIcon = "icon"
	fieldObs  = "observation"
	fieldLink = "link"
)

var headerAliases = map[string][]string{
	fieldName: {"Item", "Ítem", "Nombre", "Actividad"},
	fieldQty:  {"Cantidad", "Cant.", "Cant", "Qty"},
	fieldUnit: {"Precio Unitario", "Precio Unit", "Precio"},
	fieldTot:  {"Total Oro", "Oro Total", "Total", "Oro"},
	fieldDate: {"Fecha", "Día", "Dia", "Date"},
	fieldCat:  {"Categoria", "Categoría", "Cat"},
	fieldID:   {"Id Wowhead", "ID", "Id"},
	fieldIcon: {"Link icono", "Link Icono", "Icono"},
	fieldObs:  {"Observacion", "Observación", "Observaciones", "Notas"},
	fieldLink: {"Link", "Enlace"},
}

// Items the sheet predates the ID column for. Names resolve to catalog ids
// here when the row carries none.
var legacyItemIDs = map[string]int64{
	"Tendón de zancaalta":    212470,
	"Urditela":               212462,
	"Madeja de urditela":     212471,
	"Sombra primigenia":      22467,
	"Carne en salmuera":      212472,
	"Tejido del crepúsculo":  212463,
}

// fallbackName labels rows that have a date but no derivable name.
const fallbackName = "Sin detalle"

// Parse ingests raw tab-separated feed text. ok is false when the input has
// no usable header; malformed rows are dropped, never fatal.
func Parse(raw string) ([]core.LedgerRecord, bool) {
	return ParseGrid(SplitGrid(raw))
}

// SplitGrid splits tab-separated text into a row/column grid with trimmed
// cells. Short rows keep their short length; lookups treat missing trailing
// columns as empty.
func SplitGrid(raw string) [][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	grid := make([][]string, 0, len(lines))
	for _, line := range lines {
		cols := strings.Split(line, "\t")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		grid = append(grid, cols)
	}
	return grid
}

// ParseGrid normalizes a header-plus-rows grid into ledger records. The
// first row is the header; each field resolves through its alias list into
// a column index before any row is read.
func ParseGrid(grid [][]string) ([]core.LedgerRecord, bool) {
	if len(grid) == 0 {
		return nil, false
	}
	cols := resolveColumns(grid[0])
	if _, ok := cols[fieldName]; !ok {
		if _, ok := cols[fieldDate]; !ok {
			return nil, false
		}
	}

	records := make([]core.LedgerRecord, 0, len(grid)-1)
	for _, row := range grid[1:] {
		if r, ok := normalizeRow(row, cols); ok {
			records = append(records, r)
		}
	}
	return records, true
}

func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int, len(headerAliases))
	for field, aliases := range headerAliases {
		for _, alias := range aliases {
			if i := indexOfHeader(header, alias); i >= 0 {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func indexOfHeader(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// normalizeRow turns one source row into a record. Rows with neither a
// derivable name nor a date are blank or malformed and report ok=false.
func normalizeRow(row []string, cols map[string]int) (core.LedgerRecord, bool) {
	name := cell(row, cols, fieldName)
	date, dateOK := core.NormalizeDate(cell(row, cols, fieldDate))
	if name == "" && !dateOK {
		return core.LedgerRecord{}, false
	}
	if name == "" {
		name = fallbackName
	}

	qty, ok := core.ParseGold(cell(row, cols, fieldQty))
	if !ok || qty < 1 {
		qty = 1
	}

	unitDec, unitOK := core.ParseAmount(cell(row, cols, fieldUnit))
	totalDec, totalOK := core.ParseAmount(cell(row, cols, fieldTot))

	var total int64
	switch {
	case totalOK:
		total = core.RoundGold(totalDec)
	case unitOK:
		// Formula-error sentinel in the total column: recompute from the
		// unit price instead of defaulting to zero.
		total = core.RoundGold(unitDec.Mul(decimal.NewFromInt(qty)))
	}

	unitPrice := total / qty
	if unitPrice == 0 && unitOK {
		unitPrice = core.RoundGold(unitDec)
	}

	id, _ := strconv.ParseInt(cell(row, cols, fieldID), 10, 64)
	if id == 0 {
		id = legacyItemIDs[name]
	}

	return core.LedgerRecord{
		Name:        name,
		Date:        date,
		Category:    core.NormalizeCategory(cell(row, cols, fieldCat)),
		Total:       total,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		ExternalID:  id,
		IconRef:     cell(row, cols, fieldIcon),
		Observation: cell(row, cols, fieldObs),
		Link:        cell(row, cols, fieldLink),
	}, true
}
