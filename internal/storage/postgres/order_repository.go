package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	orderColumns = `
		id, status, currency, total_amount_minor, total_items,
		paid, paid_at, payment_id, payment_session_url, created_at, updated_at`
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create атомарно сохраняет заказ вместе с позициями в одной транзакции.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, status, currency, total_amount_minor, total_items,
			paid, paid_at, payment_id, payment_session_url, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		order.ID, string(order.Status), order.Currency, order.TotalAmountMinor, order.TotalItems,
		order.Paid, order.PaidAt, order.PaymentID, order.PaymentSessionURL,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, product_id, quantity, price_minor, created_at
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			line.ID, order.ID, line.ProductID, line.Quantity, line.PriceMinor, line.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// Get возвращает заказ с позициями и чеком.
func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	receipt, err := r.loadReceipt(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Receipt = receipt

	return order, nil
}

// List возвращает страницу заказов от новых к старым.
func (r *orderRepository) List(page, limit int, status *domain.OrderStatus) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	offset := (page - 1) * limit

	var (
		rows *sql.Rows
		err  error
	)
	if status != nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT`+orderColumns+`
			FROM orders
			WHERE status = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, string(*status), limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT`+orderColumns+`
			FROM orders
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// Count возвращает число заказов с опциональным фильтром по статусу.
func (r *orderRepository) Count(status *domain.OrderStatus) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	var err error
	if status != nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1`, string(*status)).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// UpdateStatus записывает новый статус одной строковой операцией.
func (r *orderRepository) UpdateStatus(id string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), updatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status rows: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.Get(id)
}

// MarkPaid в одной транзакции проставляет оплату и создаёт чек.
// Условие NOT paid в UPDATE вместе с UNIQUE(order_id) на receipts гарантирует,
// что повторная доставка подтверждения не создаст второй чек.
func (r *orderRepository) MarkPaid(id, paymentID, receiptURL string, paidAt time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, paid = TRUE, paid_at = $3, payment_id = $4, updated_at = $3
		WHERE id = $1 AND NOT paid
	`, id, string(domain.OrderStatusPaid), paidAt, paymentID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order paid rows: %w", err)
	}

	if affected == 0 {
		// Либо заказа нет, либо он уже оплачен — различаем после commit.
		if err = tx.Commit(); err != nil {
			return domain.Order{}, fmt.Errorf("commit noop mark paid: %w", err)
		}
		return r.Get(id)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, order_id, receipt_url, created_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), id, receiptURL, paidAt); err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrReceiptExists
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("insert receipt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit mark paid: %w", err)
	}
	return r.Get(id)
}

// SetPaymentSession сохраняет ссылку платёжной сессии заказа.
func (r *orderRepository) SetPaymentSession(id, sessionURL string, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_session_url = $2, updated_at = $3 WHERE id = $1
	`, id, sessionURL, updatedAt)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set payment session rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// ListAwaitingSession возвращает pending-заказы без платёжной сессии старше olderThan.
func (r *orderRepository) ListAwaitingSession(olderThan time.Time, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE status = $1 AND payment_session_url = '' AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`, string(domain.OrderStatusPending), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("select awaiting session: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan awaiting order: %w", err)
		}
		lines, err := r.loadLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awaiting orders: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var status string
	var paidAt sql.NullTime

	if err := row.Scan(
		&order.ID, &status, &order.Currency, &order.TotalAmountMinor, &order.TotalItems,
		&order.Paid, &paidAt, &order.PaymentID, &order.PaymentSessionURL,
		&order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	if paidAt.Valid {
		ts := paidAt.Time
		order.PaidAt = &ts
	}
	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, price_minor, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.PriceMinor, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

func (r *orderRepository) loadReceipt(ctx context.Context, orderID string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, receipt_url, created_at
		FROM receipts
		WHERE order_id = $1
	`, orderID).Scan(&receipt.ID, &receipt.OrderID, &receipt.ReceiptURL, &receipt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select receipt: %w", err)
	}
	return &receipt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
