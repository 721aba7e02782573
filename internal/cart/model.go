package cart

import (
	"sort"
	"strings"

	"github.com/gofrs/uuid"
)

// Line is one cart entry. Name, image, price and stock are snapshots copied at
// add time; they are not live-synced against the catalog afterwards. Two lines
// with the same goods id but different specs are distinct entries.
type Line struct {
	LineID    uuid.UUID         `json:"line_id"`
	GoodsID   int64             `json:"goods_id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	UnitPrice int64             `json:"unit_price"`
	Stock     int               `json:"stock"`
	Quantity  int               `json:"quantity"`
	Specs     map[string]string `json:"specs,omitempty"`
	Selected  bool              `json:"selected"`
}

// specsKey canonicalizes a specs mapping into a comparison key. Key order in
// the mapping must not matter, so the pairs are sorted before joining.
func specsKey(specs map[string]string) string {
	if len(specs) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(specs))
	for name, value := range specs {
		pairs = append(pairs, name+"="+value)
	}
	sort.Strings(pairs)

	return strings.Join(pairs, ";")
}

func (l Line) matches(goodsID int64, specs map[string]string) bool {
	return l.GoodsID == goodsID && specsKey(l.Specs) == specsKey(specs)
}

// QuantityFor returns the quantity already held for an exact goods+specs
// combination. Callers use it to validate stock before AddOrIncrement.
func QuantityFor(lines []Line, goodsID int64, specs map[string]string) int {
	for _, line := range lines {
		if line.matches(goodsID, specs) {
			return line.Quantity
		}
	}
	return 0
}

// snapshotLine is the persisted form of Line. Selected is a pointer so that
// snapshots written before the selection feature default to selected on load.
type snapshotLine struct {
	LineID    uuid.UUID         `json:"line_id"`
	GoodsID   int64             `json:"goods_id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	UnitPrice int64             `json:"unit_price"`
	Stock     int               `json:"stock"`
	Quantity  int               `json:"quantity"`
	Specs     map[string]string `json:"specs,omitempty"`
	Selected  *bool             `json:"selected,omitempty"`
}

func toSnapshot(lines []Line) []snapshotLine {
	snapshot := make([]snapshotLine, 0, len(lines))
	for i := range lines {
		line := lines[i]
		selected := line.Selected
		snapshot = append(snapshot, snapshotLine{
			LineID:    line.LineID,
			GoodsID:   line.GoodsID,
			Name:      line.Name,
			Image:     line.Image,
			UnitPrice: line.UnitPrice,
			Stock:     line.Stock,
			Quantity:  line.Quantity,
			Specs:     line.Specs,
			Selected:  &selected,
		})
	}
	return snapshot
}

func fromSnapshot(snapshot []snapshotLine) []Line {
	lines := make([]Line, 0, len(snapshot))
	for i := range snapshot {
		stored := snapshot[i]
		// Default to selected unless the stored value is explicitly false.
		selected := stored.Selected == nil || *stored.Selected
		lines = append(lines, Line{
			LineID:    stored.LineID,
			GoodsID:   stored.GoodsID,
			Name:      stored.Name,
			Image:     stored.Image,
			UnitPrice: stored.UnitPrice,
			Stock:     stored.Stock,
			Quantity:  stored.Quantity,
			Specs:     stored.Specs,
			Selected:  selected,
		})
	}
	return lines
}
