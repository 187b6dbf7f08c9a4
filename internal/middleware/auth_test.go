package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

type mockCustomerRepo struct {
	findByTokenHashFunc func(ctx context.Context, tokenHash string) (*model.Customer, error)
}

func (m *mockCustomerRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Customer, error) {
	if m.findByTokenHashFunc != nil {
		return m.findByTokenHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepo) UpdateMetadata(ctx context.Context, id string, expectedVersion int, metadata json.RawMessage) (*model.Customer, error) {
	return nil, nil
}

func TestAuthMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customer := GetCustomer(r.Context())
		require.NotNil(t, customer)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("resolves a valid bearer token into context", func(t *testing.T) {
		token := "valid-token"
		expectedHash := util.HashToken(token)

		repo := &mockCustomerRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Customer, error) {
				assert.Equal(t, expectedHash, tokenHash)
				return &model.Customer{ID: "cust-1"}, nil
			},
		}

		m := NewAuthMiddleware(repo)
		req := httptest.NewRequest(http.MethodGet, "/v1/loyalty", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		m := NewAuthMiddleware(&mockCustomerRepo{})
		req := httptest.NewRequest(http.MethodGet, "/v1/loyalty", nil)
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		m := NewAuthMiddleware(&mockCustomerRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Customer, error) {
				return nil, nil
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/v1/loyalty", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("database error", func(t *testing.T) {
		m := NewAuthMiddleware(&mockCustomerRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Customer, error) {
				return nil, errors.New("connection refused")
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/v1/loyalty", nil)
		req.Header.Set("Authorization", "Bearer any")
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("query parameter tokens are not accepted", func(t *testing.T) {
		m := NewAuthMiddleware(&mockCustomerRepo{})
		req := httptest.NewRequest(http.MethodGet, "/v1/loyalty?token=sneaky", nil)
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
