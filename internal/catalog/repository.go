package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partshelf/partshelf/internal/platform/db"
)

// Repository persists catalog data in PostgreSQL.
type Repository interface {
	Search(ctx context.Context, f SearchFilter) ([]SearchRow, error)
	Get(ctx context.Context, sku string) (PartDetail, error)
	Create(ctx context.Context, part Part, suppliers []SupplierLink) (Part, error)
	Update(ctx context.Context, sku string, update PartUpdate) error
	Delete(ctx context.Context, sku string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by the shared pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const uniqueViolation = "23505"

// searchBase joins each part with at most one representative lot (the most
// recently touched) and with every supplier row. A part with several
// suppliers yields one result row per supplier.
const searchBase = `SELECT DISTINCT p.sku, p.category, p.name, p.mpn, p.package_code, p.description, p.image_url, p.default_spec, p.unit,
	l.id, l.location_code, l.quantity, l.spec_value, l.condition,
	s.supplier_code, s.supplier_name
FROM parts p
LEFT JOIN LATERAL (
	SELECT il.id, il.location_code, il.quantity, il.spec_value, il.condition
	FROM inventory_lots il
	WHERE il.sku = p.sku
	ORDER BY il.last_updated DESC, il.id DESC
	LIMIT 1
) l ON TRUE
LEFT JOIN part_suppliers s ON s.sku = p.sku
`

func (r *repository) Search(ctx context.Context, f SearchFilter) ([]SearchRow, error) {
	where, args := compileSearch(f)
	query := searchBase + where + " ORDER BY p.sku, s.supplier_code"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	results := []SearchRow{}
	for rows.Next() {
		var row SearchRow
		if err := rows.Scan(
			&row.SKU, &row.Category, &row.Name, &row.MPN, &row.PackageCode, &row.Description, &row.ImageURL, &row.DefaultSpec, &row.Unit,
			&row.LotID, &row.LocationCode, &row.Quantity, &row.SpecValue, &row.Condition,
			&row.SupplierCode, &row.SupplierName,
		); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (r *repository) Get(ctx context.Context, sku string) (PartDetail, error) {
	var detail PartDetail
	var mpn, packageCode, description, imageURL, specJSON *string
	err := r.pool.QueryRow(ctx, `SELECT sku, category, name, mpn, package_code, description, spec_definition, image_url, default_spec, unit, created_at, updated_at
FROM parts WHERE sku = $1`, sku).Scan(
		&detail.SKU, &detail.Category, &detail.Name, &mpn, &packageCode, &description, &specJSON, &imageURL,
		&detail.DefaultSpec, &detail.Unit, &detail.CreatedAt, &detail.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartDetail{}, ErrPartNotFound
		}
		return PartDetail{}, err
	}
	detail.MPN = deref(mpn)
	detail.PackageCode = deref(packageCode)
	detail.Description = deref(description)
	detail.ImageURL = deref(imageURL)
	if specJSON != nil && *specJSON != "" {
		if err := json.Unmarshal([]byte(*specJSON), &detail.SpecDefinition); err != nil {
			return PartDetail{}, fmt.Errorf("catalog: decode spec definition for %s: %w", sku, err)
		}
	}

	rows, err := r.pool.Query(ctx, `SELECT id, sku, supplier_code, supplier_name, COALESCE(product_url, '')
FROM part_suppliers WHERE sku = $1 ORDER BY supplier_code`, sku)
	if err != nil {
		return PartDetail{}, err
	}
	defer rows.Close()

	detail.Suppliers = []SupplierLink{}
	for rows.Next() {
		var link SupplierLink
		if err := rows.Scan(&link.ID, &link.SKU, &link.SupplierCode, &link.SupplierName, &link.ProductURL); err != nil {
			return PartDetail{}, err
		}
		detail.Suppliers = append(detail.Suppliers, link)
	}
	return detail, rows.Err()
}

func (r *repository) Create(ctx context.Context, part Part, suppliers []SupplierLink) (Part, error) {
	specJSON, err := marshalSpec(part.SpecDefinition)
	if err != nil {
		return Part{}, err
	}
	now := time.Now().UTC()
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO parts (sku, category, name, mpn, package_code, description, spec_definition, image_url, default_spec, unit, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
			part.SKU, part.Category, part.Name, nullString(part.MPN), nullString(part.PackageCode), nullString(part.Description),
			specJSON, nullString(part.ImageURL), part.DefaultSpec, part.Unit, now)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrDuplicateSKU
			}
			return err
		}
		return insertSuppliers(ctx, tx, part.SKU, suppliers)
	})
	if err != nil {
		return Part{}, err
	}
	part.CreatedAt = now
	part.UpdatedAt = now
	return part, nil
}

func (r *repository) Update(ctx context.Context, sku string, update PartUpdate) error {
	var specJSON *string
	if update.SpecDefinition != nil {
		encoded, err := marshalSpec(*update.SpecDefinition)
		if err != nil {
			return err
		}
		specJSON = encoded
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE parts SET
	category = COALESCE($2, category),
	name = COALESCE($3, name),
	mpn = COALESCE($4, mpn),
	package_code = COALESCE($5, package_code),
	description = COALESCE($6, description),
	spec_definition = COALESCE($7, spec_definition),
	image_url = COALESCE($8, image_url),
	default_spec = COALESCE($9, default_spec),
	unit = COALESCE($10, unit),
	updated_at = NOW()
WHERE sku = $1`,
			sku, update.Category, update.Name, update.MPN, update.PackageCode, update.Description,
			specJSON, update.ImageURL, update.DefaultSpec, update.Unit)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPartNotFound
		}
		if update.Suppliers == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM part_suppliers WHERE sku = $1`, sku); err != nil {
			return err
		}
		return insertSuppliers(ctx, tx, sku, update.Suppliers)
	})
}

func (r *repository) Delete(ctx context.Context, sku string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT sku FROM parts WHERE sku = $1 FOR UPDATE`, sku).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPartNotFound
			}
			return err
		}
		var liveLots bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_lots WHERE sku = $1 AND quantity > 0)`, sku).Scan(&liveLots); err != nil {
			return err
		}
		if liveLots {
			return ErrPartHasStock
		}
		// Zero-quantity historical lots go with the part; the schema has
		// no cascade, so the FK rows must be cleared here.
		if _, err := tx.Exec(ctx, `DELETE FROM inventory_lots WHERE sku = $1`, sku); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM part_suppliers WHERE sku = $1`, sku); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM parts WHERE sku = $1`, sku)
		return err
	})
}

func insertSuppliers(ctx context.Context, tx pgx.Tx, sku string, suppliers []SupplierLink) error {
	for i, link := range suppliers {
		if link.SupplierCode == "" {
			return fmt.Errorf("catalog: supplier %d missing code", i)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO part_suppliers (sku, supplier_code, supplier_name, product_url)
VALUES ($1, $2, $3, $4)`, sku, link.SupplierCode, link.SupplierName, nullString(link.ProductURL)); err != nil {
			return err
		}
	}
	return nil
}

func marshalSpec(spec map[string]any) (*string, error) {
	if spec == nil {
		return nil, nil
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode spec definition: %w", err)
	}
	encoded := string(raw)
	return &encoded, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
