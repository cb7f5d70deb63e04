package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-wms/stockpilot/internal/platform/httpx"
)

// ErrDuplicateTracking indicates a tracking code collision on insert.
var ErrDuplicateTracking = fmt.Errorf("movements: tracking code already exists: %w", httpx.ErrDuplicate)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMovements(ctx context.Context, filter ListFilter) ([]StockMovement, error)
	GetMovement(ctx context.Context, id string) (*StockMovement, error)
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertMovement(ctx context.Context, m *StockMovement) error
	ApplyStockChange(ctx context.Context, productID string, previous, next int64) error
	GetMovementForUpdate(ctx context.Context, id string) (*StockMovement, error)
	UpdateTransfer(ctx context.Context, movementID string, t *TransferData) error
	UpdateApproval(ctx context.Context, movementID string, status ApprovalStatus, by string, at time.Time) error
}

// Repository persists the movement ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const movementColumns = `m.id, m.product_id, m.product_sku, m.product_name, m.type, m.quantity,
	m.reason, m.notes, m.batch, m.previous_stock, m.new_stock, m.price,
	m.approval_status, m.approved_by, m.approved_at,
	m.warehouse, m.attachments, m.user_id, m.user_name, m.created_at,
	t.tracking_code, t.source_warehouse, t.destination_warehouse, t.status,
	t.sent_by, t.sent_at, t.expected_delivery_date, t.transport_notes,
	t.received_by, t.received_at, t.actual_delivery_date,
	t.rejected_by, t.rejected_at, t.rejection_reason`

const movementFrom = ` FROM stock_movements m
	LEFT JOIN movement_transfers t ON t.movement_id = m.id`

func scanMovement(row pgx.Row) (*StockMovement, error) {
	var (
		m               StockMovement
		trackingCode    *string
		srcWarehouse    *string
		dstWarehouse    *string
		transferStatus  *string
		sentBy          *string
		sentAt          *time.Time
		expectedDate    *time.Time
		transportNotes  *string
		receivedBy      *string
		receivedAt      *time.Time
		actualDelivery  *time.Time
		rejectedBy      *string
		rejectedAt      *time.Time
		rejectionReason *string
	)

	err := row.Scan(
		&m.ID, &m.ProductID, &m.ProductSKU, &m.ProductName, &m.Type, &m.Quantity,
		&m.Reason, &m.Notes, &m.Batch, &m.PreviousStock, &m.NewStock, &m.Price,
		&m.ApprovalStatus, &m.ApprovedBy, &m.ApprovedAt,
		&m.Warehouse, &m.Attachments, &m.UserID, &m.UserName, &m.CreatedAt,
		&trackingCode, &srcWarehouse, &dstWarehouse, &transferStatus,
		&sentBy, &sentAt, &expectedDate, &transportNotes,
		&receivedBy, &receivedAt, &actualDelivery,
		&rejectedBy, &rejectedAt, &rejectionReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovementNotFound
		}
		return nil, err
	}

	if trackingCode != nil {
		m.Transfer = &TransferData{
			TrackingCode:         *trackingCode,
			SourceWarehouse:      deref(srcWarehouse),
			DestinationWarehouse: deref(dstWarehouse),
			Status:               TransferStatus(deref(transferStatus)),
			SentBy:               deref(sentBy),
			ExpectedDeliveryDate: expectedDate,
			TransportNotes:       deref(transportNotes),
			ReceivedBy:           receivedBy,
			ReceivedAt:           receivedAt,
			ActualDeliveryDate:   actualDelivery,
			RejectedBy:           rejectedBy,
			RejectedAt:           rejectedAt,
			RejectionReason:      rejectionReason,
		}
		if sentAt != nil {
			m.Transfer.SentAt = *sentAt
		}
	}
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListMovements lists ledger records, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter ListFilter) ([]StockMovement, error) {
	query := `SELECT ` + movementColumns + movementFrom + ` WHERE 1=1`
	args := []any{}
	arg := 0

	if filter.ProductID != "" {
		arg++
		query += fmt.Sprintf(" AND m.product_id = $%d", arg)
		args = append(args, filter.ProductID)
	}
	if filter.Type != "" {
		arg++
		query += fmt.Sprintf(" AND m.type = $%d", arg)
		args = append(args, filter.Type)
	}
	if filter.Warehouse != "" {
		arg++
		query += fmt.Sprintf(" AND m.warehouse = $%d", arg)
		args = append(args, filter.Warehouse)
	}

	query += " ORDER BY m.created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	arg++
	query += fmt.Sprintf(" LIMIT $%d", arg)
	args = append(args, limit)
	if filter.Offset > 0 {
		arg++
		query += fmt.Sprintf(" OFFSET $%d", arg)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("movements: list: %w", err)
	}
	defer rows.Close()

	var result []StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("movements: scan: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// GetMovement fetches one ledger record by id.
func (r *Repository) GetMovement(ctx context.Context, id string) (*StockMovement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+movementFrom+` WHERE m.id = $1`, id)
	return scanMovement(row)
}

// InsertMovement appends one record to the ledger, assigning id and created_at.
func (r *txRepo) InsertMovement(ctx context.Context, m *StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, product_sku, product_name, type, quantity,
			reason, notes, batch, previous_stock, new_stock, price,
			approval_status, warehouse, attachments, user_id, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		m.ID, m.ProductID, m.ProductSKU, m.ProductName, m.Type, m.Quantity,
		m.Reason, m.Notes, m.Batch, m.PreviousStock, m.NewStock, m.Price,
		m.ApprovalStatus, m.Warehouse, m.Attachments, m.UserID, m.UserName, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("movements: insert movement: %w", err)
	}

	if m.Transfer != nil {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO movement_transfers (movement_id, tracking_code, source_warehouse,
				destination_warehouse, status, sent_by, sent_at, expected_delivery_date, transport_notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, m.Transfer.TrackingCode, m.Transfer.SourceWarehouse,
			m.Transfer.DestinationWarehouse, m.Transfer.Status, m.Transfer.SentBy, m.Transfer.SentAt,
			m.Transfer.ExpectedDeliveryDate, m.Transfer.TransportNotes)
		if err != nil {
			if isUniqueViolation(err, "uq_movement_transfers_tracking") {
				return ErrDuplicateTracking
			}
			return fmt.Errorf("movements: insert transfer: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// ApplyStockChange moves the live stock from previous to next, failing when
// the live value no longer matches the movement's snapshot.
func (r *txRepo) ApplyStockChange(ctx context.Context, productID string, previous, next int64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE products SET current_stock = $1, updated_at = NOW()
		WHERE id = $2 AND current_stock = $3`,
		next, productID, previous)
	if err != nil {
		return fmt.Errorf("movements: apply stock change: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStock
	}
	return nil
}

// GetMovementForUpdate locks one ledger record for resolution.
func (r *txRepo) GetMovementForUpdate(ctx context.Context, id string) (*StockMovement, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+movementColumns+movementFrom+` WHERE m.id = $1 FOR UPDATE OF m`, id)
	return scanMovement(row)
}

// UpdateTransfer persists a transfer resolution.
func (r *txRepo) UpdateTransfer(ctx context.Context, movementID string, t *TransferData) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE movement_transfers SET status = $1,
			received_by = $2, received_at = $3, actual_delivery_date = $4,
			rejected_by = $5, rejected_at = $6, rejection_reason = $7
		WHERE movement_id = $8`,
		t.Status, t.ReceivedBy, t.ReceivedAt, t.ActualDeliveryDate,
		t.RejectedBy, t.RejectedAt, t.RejectionReason, movementID)
	if err != nil {
		return fmt.Errorf("movements: update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

// UpdateApproval persists an entry approval decision.
func (r *txRepo) UpdateApproval(ctx context.Context, movementID string, status ApprovalStatus, by string, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE stock_movements SET approval_status = $1, approved_by = $2, approved_at = $3
		WHERE id = $4`,
		status, by, at, movementID)
	if err != nil {
		return fmt.Errorf("movements: update approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

var (
	_ RepositoryPort = (*Repository)(nil)
	_ TxRepository   = (*txRepo)(nil)
)
