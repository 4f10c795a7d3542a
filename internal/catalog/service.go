package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/partshelf/partshelf/internal/platform/cache"
	"github.com/partshelf/partshelf/internal/platform/httpx"
	"github.com/partshelf/partshelf/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog reads and mutations. Reads go through the
// versioned cache; every mutation bumps the cache version.
type Service struct {
	repo  Repository
	cache *cache.Store
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, store *cache.Store, audit AuditPort) *Service {
	return &Service{repo: repo, cache: store, audit: audit}
}

// Search runs a catalog-centric faceted search.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]SearchRow, error) {
	key, err := s.cache.BuildKey(ctx, "catalog", "search", searchCacheToken(f))
	if err != nil {
		return nil, err
	}
	var rows []SearchRow
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (any, error) {
		return s.repo.Search(ctx, f)
	})
	return rows, err
}

// Get returns a part with its deserialized spec document and suppliers.
func (s *Service) Get(ctx context.Context, sku string) (PartDetail, error) {
	if sku == "" {
		return PartDetail{}, httpx.Validationf("sku required")
	}
	key, err := s.cache.BuildKey(ctx, "catalog", "part", sku)
	if err != nil {
		return PartDetail{}, err
	}
	var detail PartDetail
	err = s.cache.FetchJSON(ctx, key, &detail, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, sku)
	})
	return detail, err
}

// Create inserts a new catalog entry with its supplier rows.
func (s *Service) Create(ctx context.Context, part Part, suppliers []SupplierLink, actor string) (Part, error) {
	part.SKU = strings.TrimSpace(part.SKU)
	if part.SKU == "" || strings.TrimSpace(part.Category) == "" || strings.TrimSpace(part.Name) == "" {
		return Part{}, httpx.Validationf("sku, category and name are required")
	}
	if part.DefaultSpec < 0 {
		return Part{}, httpx.Validationf("default spec must be >= 0")
	}
	if part.Unit == "" {
		part.Unit = "pcs"
	}
	created, err := s.repo.Create(ctx, part, suppliers)
	if err != nil {
		return Part{}, err
	}
	_ = s.cache.Bump(ctx)
	s.record(ctx, actor, "catalog:create", created.SKU, map[string]any{"category": created.Category, "name": created.Name})
	return created, nil
}

// Update applies a coalescing partial update, optionally replacing suppliers.
func (s *Service) Update(ctx context.Context, sku string, update PartUpdate, actor string) (PartDetail, error) {
	if sku == "" {
		return PartDetail{}, httpx.Validationf("sku required")
	}
	if update.DefaultSpec != nil && *update.DefaultSpec < 0 {
		return PartDetail{}, httpx.Validationf("default spec must be >= 0")
	}
	if err := s.repo.Update(ctx, sku, update); err != nil {
		return PartDetail{}, err
	}
	_ = s.cache.Bump(ctx)
	s.record(ctx, actor, "catalog:update", sku, map[string]any{"suppliers_replaced": update.Suppliers != nil})
	return s.repo.Get(ctx, sku)
}

// Delete removes a catalog entry. Entries with live inventory are refused.
func (s *Service) Delete(ctx context.Context, sku string, actor string) error {
	if sku == "" {
		return httpx.Validationf("sku required")
	}
	if err := s.repo.Delete(ctx, sku); err != nil {
		return err
	}
	_ = s.cache.Bump(ctx)
	s.record(ctx, actor, "catalog:delete", sku, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor, action, sku string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "parts",
		EntityID: sku,
		Meta:     meta,
	})
}

// searchCacheToken derives a stable cache key component from the filter.
func searchCacheToken(f SearchFilter) string {
	raw, err := json.Marshal(f)
	if err != nil {
		return "invalid"
	}
	return string(raw)
}
