package service

import (
	"math"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

// MaxPage is the largest page number the page_number INTEGER column holds.
const MaxPage = math.MaxInt32

// NextPlacement returns the cell after last in append order. A nil last means
// the binder is empty. Freed cells are never reused: allocation only moves
// forward, so placement mirrors insertion order until the owner reorders.
func NextPlacement(last *models.Placement) models.Placement {
	if last == nil {
		return models.Placement{Page: 1, Slot: 0}
	}
	if last.Slot < models.SlotsPerPage-1 {
		return models.Placement{Page: last.Page, Slot: last.Slot + 1}
	}
	return models.Placement{Page: last.Page + 1, Slot: 0}
}

// ValidPlacement reports whether p is inside the grid.
func ValidPlacement(p models.Placement) bool {
	return p.Page >= 1 && p.Page <= MaxPage && p.Slot >= 0 && p.Slot < models.SlotsPerPage
}
