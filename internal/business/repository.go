package business

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

const businessColumns = `id, name, owner_name, phone, email, address, gstin, gst_rate, cgst_rate, sgst_rate, created_at, updated_at`

// Repository provides tenant persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Business, error)
	Create(ctx context.Context, b Business) (*Business, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (*Business, error) {
	row := r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.OwnerName, &b.Phone, &b.Email, &b.Address, &b.GSTIN,
		&b.GSTRate, &b.CGSTRate, &b.SGSTRate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: business %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) Create(ctx context.Context, b Business) (*Business, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO businesses (name, owner_name, phone, email, address, gstin, gst_rate, cgst_rate, sgst_rate, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		b.Name, b.OwnerName, b.Phone, b.Email, b.Address, b.GSTIN, b.GSTRate, b.CGSTRate, b.SGSTRate, now,
	).Scan(&b.ID)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return &b, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE businesses SET updated_at = NOW()`
	args := []interface{}{}
	argCount := 0
	for _, col := range []string{"name", "owner_name", "phone", "email", "address", "gstin", "gst_rate", "cgst_rate", "sgst_rate"} {
		if v, ok := updates[col]; ok {
			argCount++
			query += `, ` + col + ` = $` + strconv.Itoa(argCount)
			args = append(args, v)
		}
	}
	argCount++
	query += ` WHERE id = $` + strconv.Itoa(argCount)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: business %d", shared.ErrNotFound, id)
	}
	return nil
}
