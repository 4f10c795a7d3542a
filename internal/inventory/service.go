package inventory

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/partshelf/partshelf/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListStock(ctx context.Context, filter StockFilter) ([]StockRow, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator bumps derived read caches after a mutation.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates inventory operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CacheInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cache CacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// Cut consumes useAmount of material from one piece of the lot: the lot loses
// exactly one piece, and any strictly positive remainder is materialised as a
// new SCRAP lot in the same transaction. The returned remaining spec is 0 when
// the piece was fully consumed.
func (s *Service) Cut(ctx context.Context, input CutInput) (CutResult, error) {
	if input.LotID == 0 || input.UseAmount <= 0 {
		return CutResult{}, ErrMissingInput
	}

	var result CutResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lot, err := tx.GetLotForUpdate(ctx, input.LotID)
		if err != nil {
			return err
		}
		if lot.Quantity < 1 {
			return ErrInsufficientQuantity
		}
		remaining := lot.EffectiveSpec() - input.UseAmount
		if remaining < 0 {
			return ErrExceedsSpec
		}
		if err := tx.DecrementLot(ctx, lot.ID); err != nil {
			return err
		}
		if remaining > 0 {
			scrap := Lot{
				SKU:          lot.SKU,
				LocationCode: lot.LocationCode,
				Quantity:     1,
				SpecValue:    remaining,
				Condition:    ConditionScrap,
			}
			if _, err := tx.InsertLot(ctx, scrap); err != nil {
				return err
			}
		}
		result = CutResult{LotID: lot.ID, RemainingSpec: remaining}
		return nil
	})
	if err != nil {
		return CutResult{}, err
	}

	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    input.Actor,
			Action:   "inventory:cut",
			Entity:   "inventory_lots",
			EntityID: strconv.FormatInt(input.LotID, 10),
			Meta: map[string]any{
				"cut_id":         uuid.NewString(),
				"use_amount":     input.UseAmount,
				"remaining_spec": result.RemainingSpec,
			},
		})
	}
	return result, nil
}

// ListStock lists lots that still hold pieces, flattened with catalog fields.
func (s *Service) ListStock(ctx context.Context, filter StockFilter) ([]StockRow, error) {
	return s.repo.ListStock(ctx, filter)
}
