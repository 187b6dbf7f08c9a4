package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verdantlane/loyalty-game-server/internal/model"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Customer, error)
	Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error)
	// UpdateMetadata replaces the metadata blob only if the stored version
	// still matches expectedVersion. Returns (nil, nil) when another writer
	// got there first; callers re-read and retry.
	UpdateMetadata(ctx context.Context, id string, expectedVersion int, metadata json.RawMessage) (*model.Customer, error)
}

type customerRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT * FROM customers WHERE id = $1
	`, id)
	return HandleNotFound(&customer, err)
}

func (r *customerRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT * FROM customers
		WHERE api_token_hash = $1 AND disabled_at IS NULL
	`, tokenHash)
	return HandleNotFound(&customer, err)
}

func (r *customerRepo) Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		INSERT INTO customers (email, api_token_hash, metadata, metadata_version, rate_limit_per_minute)
		VALUES ($1, $2, '{}'::jsonb, 0, $3)
		RETURNING *
	`, params.Email, params.APITokenHash, params.RateLimitPerMin)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) UpdateMetadata(ctx context.Context, id string, expectedVersion int, metadata json.RawMessage) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		UPDATE customers SET
			metadata = $3,
			metadata_version = metadata_version + 1,
			updated_at = $4
		WHERE id = $1 AND metadata_version = $2
		RETURNING *
	`, id, expectedVersion, metadata, time.Now())
	return HandleNotFound(&customer, err)
}
