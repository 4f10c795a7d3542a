package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists inventory lots in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the consumption
// engine. All three run against the same transaction, so the row lock taken
// by GetLotForUpdate covers the decrement and the remainder insert.
type TxRepository interface {
	GetLotForUpdate(ctx context.Context, lotID int64) (LotWithSpec, error)
	DecrementLot(ctx context.Context, lotID int64) error
	InsertLot(ctx context.Context, lot Lot) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// cutTxOptions runs cuts at read committed. The FOR UPDATE row lock already
// serializes concurrent cuts, and after acquiring the lock each transaction
// re-reads the committed row, so the loser of a race on the last piece sees
// quantity 0 and fails with ErrInsufficientQuantity. A stricter isolation
// level would instead abort the loser with a serialization error.
var cutTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, cutTxOptions)
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) GetLotForUpdate(ctx context.Context, lotID int64) (LotWithSpec, error) {
	var lot LotWithSpec
	err := r.tx.QueryRow(ctx, `SELECT l.id, l.sku, l.location_code, l.quantity, l.spec_value, l.condition, l.last_updated, p.default_spec
FROM inventory_lots l
JOIN parts p ON p.sku = l.sku
WHERE l.id = $1
FOR UPDATE OF l`, lotID).
		Scan(&lot.ID, &lot.SKU, &lot.LocationCode, &lot.Quantity, &lot.SpecValue, &lot.Condition, &lot.LastUpdated, &lot.DefaultSpec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LotWithSpec{}, ErrLotNotFound
		}
		return LotWithSpec{}, err
	}
	return lot, nil
}

// DecrementLot removes exactly one piece from the lot. The quantity guard in
// the statement is a second line of defence behind the row lock: zero rows
// affected means another transaction emptied the lot first.
func (r *txRepository) DecrementLot(ctx context.Context, lotID int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inventory_lots
SET quantity = quantity - 1, last_updated = NOW()
WHERE id = $1 AND quantity >= 1`, lotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientQuantity
	}
	return nil
}

func (r *txRepository) InsertLot(ctx context.Context, lot Lot) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_lots (sku, location_code, quantity, spec_value, condition, last_updated)
VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		lot.SKU, lot.LocationCode, lot.Quantity, lot.SpecValue, string(lot.Condition)).Scan(&id)
	return id, err
}

// ListStock returns the inventory-centric listing: lots that still hold
// pieces, joined with catalog display fields.
func (r *Repository) ListStock(ctx context.Context, filter StockFilter) ([]StockRow, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	query := `SELECT l.id, l.sku, p.name, p.category, p.package_code, p.unit, l.location_code, l.quantity, l.condition,
	CASE WHEN l.condition = 'NEW' THEN p.default_spec ELSE l.spec_value END AS effective_spec,
	l.last_updated
FROM inventory_lots l
JOIN parts p ON p.sku = l.sku
WHERE l.quantity > 0`
	args := []any{}

	if categories := cleanFilterValues(filter.Categories); len(categories) > 0 {
		query += " AND (" + orEqualsGroup("p.category", categories, &args) + ")"
	}
	if packages := cleanFilterValues(filter.PackageCodes); len(packages) > 0 {
		query += " AND (" + orEqualsGroup("p.package_code", packages, &args) + ")"
	}
	if filter.SupplierCode != "" {
		args = append(args, filter.SupplierCode)
		query += " AND EXISTS (SELECT 1 FROM part_suppliers s WHERE s.sku = p.sku AND s.supplier_code = $" + strconv.Itoa(len(args)) + ")"
	}
	query += " ORDER BY l.sku, l.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := []StockRow{}
	for rows.Next() {
		var row StockRow
		if err := rows.Scan(&row.LotID, &row.SKU, &row.Name, &row.Category, &row.PackageCode, &row.Unit,
			&row.LocationCode, &row.Quantity, &row.Condition, &row.EffectiveSpec, &row.LastUpdated); err != nil {
			return nil, err
		}
		stock = append(stock, row)
	}
	return stock, rows.Err()
}

// ListLowStock reports parts whose total usable piece count is below the
// threshold. Used by the background scan job.
func (r *Repository) ListLowStock(ctx context.Context, threshold float64) ([]LowStockRow, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT p.sku, p.name, COALESCE(SUM(l.quantity), 0) AS piece_count
FROM parts p
LEFT JOIN inventory_lots l ON l.sku = p.sku AND l.quantity > 0
GROUP BY p.sku, p.name
HAVING COALESCE(SUM(l.quantity), 0) < $1
ORDER BY piece_count ASC, p.sku`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	low := []LowStockRow{}
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.SKU, &row.Name, &row.PieceCount); err != nil {
			return nil, err
		}
		low = append(low, row)
	}
	return low, rows.Err()
}

func orEqualsGroup(column string, values []string, args *[]any) string {
	clauses := make([]string, 0, len(values))
	for _, v := range values {
		*args = append(*args, v)
		clauses = append(clauses, column+" = $"+strconv.Itoa(len(*args)))
	}
	return strings.Join(clauses, " OR ")
}

func cleanFilterValues(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
