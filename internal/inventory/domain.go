package inventory

import (
	"errors"
	"time"
)

// Condition describes the provenance of a lot.
type Condition string

const (
	// ConditionNew marks untouched stock; its effective spec is the catalog
	// default for the part.
	ConditionNew Condition = "NEW"
	// ConditionScrap marks reclaimed remainders; the effective spec is the
	// lot's own stored spec value.
	ConditionScrap Condition = "SCRAP"
)

// Lot is a row of physical inventory: a count of interchangeable pieces that
// share the same remaining spec value.
type Lot struct {
	ID           int64     `json:"id"`
	SKU          string    `json:"sku"`
	LocationCode string    `json:"location_code"`
	Quantity     float64   `json:"quantity"`
	SpecValue    float64   `json:"spec_value"`
	Condition    Condition `json:"condition"`
	LastUpdated  time.Time `json:"last_updated"`
}

// LotWithSpec is a lot joined with its part's catalog default spec.
type LotWithSpec struct {
	Lot
	DefaultSpec float64
}

// EffectiveSpec is the physical measure remaining on each piece of the lot.
// NEW lots carry the catalog default; SCRAP lots carry their stored value.
func (l LotWithSpec) EffectiveSpec() float64 {
	if l.Condition == ConditionNew {
		return l.DefaultSpec
	}
	return l.SpecValue
}

// CutInput describes a request to consume material from one piece of a lot.
type CutInput struct {
	LotID     int64
	UseAmount float64
	Actor     string
}

// CutResult reports the outcome of a cut.
type CutResult struct {
	LotID         int64
	RemainingSpec float64
}

// StockRow is one inventory-centric listing entry: a lot with catalog display
// fields flattened next to it.
type StockRow struct {
	LotID         int64     `json:"lot_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	PackageCode   *string   `json:"package_code,omitempty"`
	Unit          string    `json:"unit"`
	LocationCode  string    `json:"location_code"`
	Quantity      float64   `json:"quantity"`
	Condition     Condition `json:"condition"`
	EffectiveSpec float64   `json:"effective_spec"`
	LastUpdated   time.Time `json:"last_updated"`
}

// StockFilter restricts the inventory-centric listing.
type StockFilter struct {
	Categories   []string
	PackageCodes []string
	SupplierCode string
}

// LowStockRow reports a part whose usable piece count fell below a threshold.
type LowStockRow struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	PieceCount float64 `json:"piece_count"`
}

// ErrMissingInput indicates the cut request lacked a lot id or use amount.
var ErrMissingInput = errors.New("inventory: lot id and use amount are both required")

// ErrLotNotFound indicates the referenced lot does not exist.
var ErrLotNotFound = errors.New("inventory: lot not found")

// ErrInsufficientQuantity indicates the lot has no piece left to cut from.
var ErrInsufficientQuantity = errors.New("inventory: lot has no remaining quantity")

// ErrExceedsSpec indicates the requested amount is larger than the material
// remaining on a single piece.
var ErrExceedsSpec = errors.New("inventory: use amount exceeds current spec")
