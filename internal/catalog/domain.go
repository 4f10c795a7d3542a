package catalog

import (
	"errors"
	"time"
)

// Part is a catalog entry keyed by SKU. DefaultSpec is the nominal physical
// quantity of a new lot of this part (e.g. spool length in Unit).
type Part struct {
	SKU            string         `json:"sku"`
	Category       string         `json:"category"`
	Name           string         `json:"name"`
	MPN            string         `json:"mpn,omitempty"`
	PackageCode    string         `json:"package_code,omitempty"`
	Description    string         `json:"description,omitempty"`
	SpecDefinition map[string]any `json:"spec_definition,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	DefaultSpec    float64        `json:"default_spec"`
	Unit           string         `json:"unit"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SupplierLink ties a part to one supplier listing. The set is replaced
// wholesale whenever an update carries a suppliers list.
type SupplierLink struct {
	ID           int64  `json:"id"`
	SKU          string `json:"sku"`
	SupplierCode string `json:"supplier_code"`
	SupplierName string `json:"supplier_name"`
	ProductURL   string `json:"product_url,omitempty"`
}

// PartDetail is a part with its supplier rows.
type PartDetail struct {
	Part
	Suppliers []SupplierLink `json:"suppliers"`
}

// PartUpdate carries a coalescing partial update: nil fields keep the stored
// value. A non-nil Suppliers slice replaces the full supplier set.
type PartUpdate struct {
	Category       *string
	Name           *string
	MPN            *string
	PackageCode    *string
	Description    *string
	SpecDefinition *map[string]any
	ImageURL       *string
	DefaultSpec    *float64
	Unit           *string
	Suppliers      []SupplierLink
}

// SearchFilter names the optional facets of a catalog search. Facets AND
// together; the multi-value facets OR internally.
type SearchFilter struct {
	Name         string
	SKU          string
	SupplierCode string
	PackageCodes []string
	Categories   []string
	Description  string
	Keyword      string
}

// SearchRow is one catalog-centric search result: a part flattened with at
// most one representative lot and one supplier row. Parts with several
// suppliers produce several rows; callers tolerate that duplication.
type SearchRow struct {
	SKU          string   `json:"sku"`
	Category     string   `json:"category"`
	Name         string   `json:"name"`
	MPN          *string  `json:"mpn,omitempty"`
	PackageCode  *string  `json:"package_code,omitempty"`
	Description  *string  `json:"description,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	DefaultSpec  float64  `json:"default_spec"`
	Unit         string   `json:"unit"`
	LotID        *int64   `json:"lot_id,omitempty"`
	LocationCode *string  `json:"location_code,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	SpecValue    *float64 `json:"spec_value,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	SupplierCode *string  `json:"supplier_code,omitempty"`
	SupplierName *string  `json:"supplier_name,omitempty"`
}

// ErrPartNotFound indicates the referenced SKU does not exist.
var ErrPartNotFound = errors.New("catalog: part not found")

// ErrDuplicateSKU indicates a create collided with an existing SKU.
var ErrDuplicateSKU = errors.New("catalog: sku already exists")

// ErrPartHasStock blocks deletion while lots with remaining quantity exist.
var ErrPartHasStock = errors.New("catalog: part still has inventory lots with quantity > 0")
