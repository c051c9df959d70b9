package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-market/internal/models"
)

const paymentColumns = `id, account_id, course_id, value::text, email_address, created_at, gateway_order`

// GetPayment возвращает платёж по идентификатору заказа.
func (s *Storage) GetPayment(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPayment"

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE account_id = $1
			  ORDER BY created_at DESC, id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SavePurchase в одной транзакции сохраняет платёж и запись на курс.
//
// Если платёж с таким ID уже существует, транзакция откатывается и
// возвращается ErrPaymentExists. Повторная запись на уже купленный курс
// не считается ошибкой.
func (s *Storage) SavePurchase(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	const op = "storage.SavePurchase"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertPayment := `INSERT INTO payments (id, account_id, course_id, value, email_address, gateway_order)
					  VALUES ($1, $2, $3, $4::numeric, $5, $6::jsonb)
					  ON CONFLICT (id) DO NOTHING
					  RETURNING ` + paymentColumns
	saved, err := scanPayment(tx.QueryRowContext(ctx, insertPayment,
		payment.ID, payment.AccountID, payment.CourseID, payment.Value, payment.EmailAddress,
		nullableJSON(payment.GatewayOrder)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentExists)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: insert payment: %w", op, err)
	}

	insertEnrollment := `INSERT INTO user_courses (user_id, course_id)
						 VALUES ($1, $2)
						 ON CONFLICT (user_id, course_id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, insertEnrollment, payment.AccountID, payment.CourseID); err != nil {
		return nil, fmt.Errorf("%s: insert enrollment: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return saved, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p            models.Payment
		gatewayOrder []byte
	)
	if err := row.Scan(&p.ID, &p.AccountID, &p.CourseID, &p.Value,
		&p.EmailAddress, &p.CreatedAt, &gatewayOrder); err != nil {
		return nil, err
	}
	if len(gatewayOrder) > 0 {
		p.GatewayOrder = gatewayOrder
	}
	return &p, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
