package catalog

type supplierPayload struct {
	SupplierCode string `json:"supplierCode" validate:"required"`
	SupplierName string `json:"supplierName"`
	ProductURL   string `json:"productUrl"`
}

type createPartRequest struct {
	SKU            string            `json:"sku" validate:"required"`
	Category       string            `json:"category" validate:"required"`
	Name           string            `json:"name" validate:"required"`
	MPN            string            `json:"mpn"`
	PackageCode    string            `json:"packageCode"`
	Description    string            `json:"description"`
	SpecDefinition map[string]any    `json:"specDefinition"`
	ImageURL       string            `json:"imageUrl"`
	DefaultSpec    float64           `json:"defaultSpec" validate:"gte=0"`
	Unit           string            `json:"unit"`
	Suppliers      []supplierPayload `json:"suppliers" validate:"dive"`
}

type updatePartRequest struct {
	Category       *string           `json:"category"`
	Name           *string           `json:"name"`
	MPN            *string           `json:"mpn"`
	PackageCode    *string           `json:"packageCode"`
	Description    *string           `json:"description"`
	SpecDefinition *map[string]any   `json:"specDefinition"`
	ImageURL       *string           `json:"imageUrl"`
	DefaultSpec    *float64          `json:"defaultSpec" validate:"omitempty,gte=0"`
	Unit           *string           `json:"unit"`
	// nil when the suppliers key is absent; an explicit empty list decodes
	// to a non-nil empty slice and clears the supplier set.
	Suppliers []supplierPayload `json:"suppliers" validate:"dive"`
}

func (r createPartRequest) toDomain() (Part, []SupplierLink) {
	part := Part{
		SKU:            r.SKU,
		Category:       r.Category,
		Name:           r.Name,
		MPN:            r.MPN,
		PackageCode:    r.PackageCode,
		Description:    r.Description,
		SpecDefinition: r.SpecDefinition,
		ImageURL:       r.ImageURL,
		DefaultSpec:    r.DefaultSpec,
		Unit:           r.Unit,
	}
	return part, toSupplierLinks(r.SKU, r.Suppliers)
}

func (r updatePartRequest) toDomain(sku string) PartUpdate {
	update := PartUpdate{
		Category:       r.Category,
		Name:           r.Name,
		MPN:            r.MPN,
		PackageCode:    r.PackageCode,
		Description:    r.Description,
		SpecDefinition: r.SpecDefinition,
		ImageURL:       r.ImageURL,
		DefaultSpec:    r.DefaultSpec,
		Unit:           r.Unit,
	}
	if r.Suppliers != nil {
		update.Suppliers = toSupplierLinks(sku, r.Suppliers)
	}
	return update
}

func toSupplierLinks(sku string, payloads []supplierPayload) []SupplierLink {
	if payloads == nil {
		return nil
	}
	links := make([]SupplierLink, 0, len(payloads))
	for _, p := range payloads {
		links = append(links, SupplierLink{
			SKU:          sku,
			SupplierCode: p.SupplierCode,
			SupplierName: p.SupplierName,
			ProductURL:   p.ProductURL,
		})
	}
	return links
}
