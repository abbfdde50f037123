package sheet

import (
	"strconv"
	"strings"
)

// FarmRow is one entry of the suggested-farms sheet: an item worth farming,
// its catalog id, and an optional tutorial link.
type FarmRow struct {
	Name        string `json:"name"`
	ItemID      int64  `json:"itemId"`
	IconRef     string `json:"iconRef,omitempty"`
	TutorialURL string `json:"tutorialUrl,omitempty"`
}

var farmAliases = map[string][]string{
	"name":     {"Item", "Nombre", "Ítem"},
	"id":       {"Id Wowhead", "ID", "Id"},
	"icon":     {"Link icono", "Icono", "Link Icono"},
	"tutorial": {"Link YouTube", "Link Youtube", "Tutorial", "YouTube"},
}

// ParseFarms ingests the farms sheet. Rows without both a name and a
// positive item id are dropped; the board is useless without a price lookup
// key.
func ParseFarms(raw string) ([]FarmRow, bool) {
	return ParseFarmsGrid(SplitGrid(raw))
}

// ParseFarmsGrid ingests an already-split farms grid, header row first.
func ParseFarmsGrid(grid [][]string) ([]FarmRow, bool) {
	if len(grid) == 0 {
		return nil, false
	}

	cols := map[string]int{}
	for field, aliases := range farmAliases {
		for _, alias := range aliases {
			if i := indexOfHeader(grid[0], alias); i >= 0 {
				cols[field] = i
				break
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, false
	}

	var rows []FarmRow
	for _, row := range grid[1:] {
		name := strings.TrimSpace(cell(row, cols, "name"))
		id, _ := strconv.ParseInt(cell(row, cols, "id"), 10, 64)
		if name == "" || id <= 0 {
			continue
		}
		rows = append(rows, FarmRow{
			Name:        name,
			ItemID:      id,
			IconRef:     cell(row, cols, "icon"),
			TutorialURL: cell(row, cols, "tutorial"),
		})
	}
	return rows, true
}
