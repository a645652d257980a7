package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type marketplaceItemRepository struct {
	db *database.DB
}

func NewMarketplaceItemRepository(db *database.DB) marketplace.ItemRepository {
	return &marketplaceItemRepository{db: db}
}

const itemColumns = `id, company_id, name, description, points_price, approval_required, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (marketplace.Item, error) {
	var i marketplace.Item
	err := row.Scan(&i.ID, &i.CompanyID, &i.Name, &i.Description, &i.PointsPrice, &i.ApprovalRequired, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// Create implements marketplace.ItemRepository.
func (r *marketplaceItemRepository) Create(ctx context.Context, item marketplace.Item) (marketplace.Item, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO marketplace_items (company_id, name, description, points_price, approval_required, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + itemColumns

	created, err := scanItem(q.QueryRow(ctx, query,
		item.CompanyID, item.Name, item.Description, item.PointsPrice, item.ApprovalRequired, item.IsActive))
	if err != nil {
		return marketplace.Item{}, fmt.Errorf("failed to create marketplace item: %w", err)
	}
	return created, nil
}

// GetByID implements marketplace.ItemRepository.
func (r *marketplaceItemRepository) GetByID(ctx context.Context, companyID, id string) (marketplace.Item, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + itemColumns + ` FROM marketplace_items WHERE id = $1 AND company_id = $2`

	item, err := scanItem(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return marketplace.Item{}, marketplace.ErrItemNotFound
		}
		return marketplace.Item{}, fmt.Errorf("failed to get marketplace item with id %s: %w", id, err)
	}
	return item, nil
}

// List implements marketplace.ItemRepository.
func (r *marketplaceItemRepository) List(ctx context.Context, companyID string, activeOnly bool) ([]marketplace.Item, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + itemColumns + `
		FROM marketplace_items
		WHERE company_id = $1 AND (NOT $2 OR is_active)
		ORDER BY points_price, name`

	rows, err := q.Query(ctx, query, companyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace items: %w", err)
	}
	defer rows.Close()

	var out []marketplace.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marketplace item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type marketplaceOrderRepository struct {
	db *database.DB
}

func NewMarketplaceOrderRepository(db *database.DB) marketplace.OrderRepository {
	return &marketplaceOrderRepository{db: db}
}

const orderColumns = `
	o.id, o.company_id, o.employee_id, o.item_id, o.points_spent, o.status,
	o.rejection_reason, o.reviewed_by, o.reviewed_at, o.consumed_at, o.created_at, o.updated_at, i.name`

const orderFrom = `
	FROM marketplace_orders o
	LEFT JOIN marketplace_items i ON i.id = o.item_id`

func scanOrder(row pgx.Row) (marketplace.Order, error) {
	var (
		o      marketplace.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.EmployeeID, &o.ItemID, &o.PointsSpent, &status,
		&o.RejectionReason, &o.ReviewedBy, &o.ReviewedAt, &o.ConsumedAt, &o.CreatedAt, &o.UpdatedAt, &o.ItemName,
	)
	if err != nil {
		return marketplace.Order{}, err
	}
	o.Status = marketplace.OrderStatus(status)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]marketplace.Order, error) {
	defer rows.Close()
	var out []marketplace.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marketplace order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Create implements marketplace.OrderRepository.
func (r *marketplaceOrderRepository) Create(ctx context.Context, o marketplace.Order) (marketplace.Order, error) {
	q := GetQuerier(ctx, r.db)

	var id string
	err := q.QueryRow(ctx, `
		INSERT INTO marketplace_orders (company_id, employee_id, item_id, points_spent, status, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		o.CompanyID, o.EmployeeID, o.ItemID, o.PointsSpent, string(o.Status), o.ConsumedAt,
	).Scan(&id)
	if err != nil {
		return marketplace.Order{}, fmt.Errorf("failed to create marketplace order: %w", err)
	}
	return r.GetByID(ctx, o.CompanyID, id)
}

// GetByID implements marketplace.OrderRepository.
func (r *marketplaceOrderRepository) GetByID(ctx context.Context, companyID, id string) (marketplace.Order, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + orderColumns + orderFrom + ` WHERE o.id = $1 AND o.company_id = $2`

	o, err := scanOrder(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return marketplace.Order{}, marketplace.ErrOrderNotFound
		}
		return marketplace.Order{}, fmt.Errorf("failed to get marketplace order with id %s: %w", id, err)
	}
	return o, nil
}

// ListByEmployee implements marketplace.OrderRepository.
func (r *marketplaceOrderRepository) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]marketplace.Order, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + orderColumns + orderFrom + `
		WHERE o.company_id = $1 AND o.employee_id = $2
		ORDER BY o.created_at DESC`

	rows, err := q.Query(ctx, query, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee orders: %w", err)
	}
	return collectOrders(rows)
}

// List implements marketplace.OrderRepository.
func (r *marketplaceOrderRepository) List(ctx context.Context, companyID string, status *marketplace.OrderStatus) ([]marketplace.Order, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + orderColumns + orderFrom + `
		WHERE o.company_id = $1 AND ($2::text IS NULL OR o.status = $2::text)
		ORDER BY o.created_at DESC`

	var s *string
	if status != nil {
		v := string(*status)
		s = &v
	}
	rows, err := q.Query(ctx, query, companyID, s)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace orders: %w", err)
	}
	return collectOrders(rows)
}

// UpdateStatus implements marketplace.OrderRepository. Moving to consumed stamps consumed_at.
func (r *marketplaceOrderRepository) UpdateStatus(ctx context.Context, companyID, id string, from, to marketplace.OrderStatus, reviewerID *string, reason *string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE marketplace_orders SET
			status = $4,
			reviewed_by = COALESCE($5, reviewed_by),
			rejection_reason = COALESCE($6, rejection_reason),
			reviewed_at = CASE WHEN $4 = 'consumed' THEN reviewed_at ELSE $7 END,
			consumed_at = CASE WHEN $4 = 'consumed' THEN $7 ELSE consumed_at END,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = $3`,
		id, companyID, string(from), string(to), reviewerID, reason, at)
	if err != nil {
		return false, fmt.Errorf("failed to update marketplace order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
