package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/verdantlane/loyalty-game-server/internal/loyalty"
	"github.com/verdantlane/loyalty-game-server/internal/middleware"
	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
	"github.com/verdantlane/loyalty-game-server/internal/service"
	"github.com/verdantlane/loyalty-game-server/internal/token"
)

const handlerTestSecret = "handler-test-game-session-secret-01"

// Mock repositories

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Customer, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) UpdateMetadata(ctx context.Context, id string, expectedVersion int, metadata json.RawMessage) (*model.Customer, error) {
	args := m.Called(ctx, id, expectedVersion, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

type mockGameEventRepo struct {
	mock.Mock
}

func (m *mockGameEventRepo) Create(ctx context.Context, params model.CreateGameEventParams) (*model.GameEvent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GameEvent), args.Error(1)
}

func (m *mockGameEventRepo) FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]model.GameEvent, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GameEvent), args.Error(1)
}

func (m *mockGameEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func testCustomer(metadata json.RawMessage) *model.Customer {
	return &model.Customer{
		ID:              "cust-1",
		Metadata:        metadata,
		MetadataVersion: 1,
	}
}

func withCustomer(r *http.Request, customer *model.Customer) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.CustomerContextKey, customer)
	return r.WithContext(ctx)
}

func newGameHandler(repo repository.CustomerRepository) *GameHandler {
	codec := token.NewCodec(handlerTestSecret)
	svc := service.NewGameService(repo, nil, codec, 24*time.Hour, 5*time.Minute)
	return NewGameHandler(svc)
}

func TestGameHandlerStart(t *testing.T) {
	t.Run("issues a challenge", func(t *testing.T) {
		customer := testCustomer(nil)
		repo := new(mockCustomerRepo)
		repo.On("FindByID", mock.Anything, "cust-1").Return(customer, nil)
		repo.On("UpdateMetadata", mock.Anything, "cust-1", 1, mock.Anything).Return(customer, nil)

		h := newGameHandler(repo)

		req := httptest.NewRequest(http.MethodPost, "/v1/game/start", nil)
		req = withCustomer(req, customer)
		rec := httptest.NewRecorder()

		h.Start(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Deck           []map[string]string `json:"deck"`
			Signature      string              `json:"signature"`
			Nonce          string              `json:"nonce"`
			ExpiresAt      int64               `json:"expiresAt"`
			CooldownEndsAt time.Time           `json:"cooldownEndsAt"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Deck, 18)
		assert.NotEmpty(t, body.Signature)
		assert.NotEmpty(t, body.Nonce)
		assert.Greater(t, body.ExpiresAt, time.Now().Unix())
		repo.AssertExpectations(t)
	})

	t.Run("cooldown yields 429 with countdown fields", func(t *testing.T) {
		endsAt := time.Now().Add(12 * time.Hour).UTC()
		nonce := "live-nonce"
		metadata, err := json.Marshal(map[string]any{
			"gameSession": model.SessionState{LastNonce: &nonce, CooldownEndsAt: &endsAt},
		})
		require.NoError(t, err)

		customer := testCustomer(metadata)
		repo := new(mockCustomerRepo)
		repo.On("FindByID", mock.Anything, "cust-1").Return(customer, nil)

		h := newGameHandler(repo)

		req := httptest.NewRequest(http.MethodPost, "/v1/game/start", nil)
		req = withCustomer(req, customer)
		rec := httptest.NewRecorder()

		h.Start(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["cooldownActive"])
		assert.NotEmpty(t, body["cooldownEndsAt"])
		assert.Greater(t, body["remainingMs"].(float64), float64(0))
		repo.AssertNotCalled(t, "UpdateMetadata", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing customer context", func(t *testing.T) {
		h := newGameHandler(new(mockCustomerRepo))

		req := httptest.NewRequest(http.MethodPost, "/v1/game/start", nil)
		rec := httptest.NewRecorder()

		h.Start(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGameHandlerComplete(t *testing.T) {
	t.Run("malformed body maps to generic verification failure", func(t *testing.T) {
		customer := testCustomer(nil)
		h := newGameHandler(new(mockCustomerRepo))

		req := httptest.NewRequest(http.MethodPost, "/v1/game/complete", bytes.NewBufferString("{nope"))
		req = withCustomer(req, customer)
		rec := httptest.NewRecorder()

		h.Complete(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "VERIFICATION_FAILED", body["code"])
	})

	t.Run("missing fields map to generic verification failure", func(t *testing.T) {
		customer := testCustomer(nil)
		h := newGameHandler(new(mockCustomerRepo))

		req := httptest.NewRequest(http.MethodPost, "/v1/game/complete",
			bytes.NewBufferString(`{"nonce": "abc", "elapsedSeconds": 30}`))
		req = withCustomer(req, customer)
		rec := httptest.NewRecorder()

		h.Complete(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "VERIFICATION_FAILED", body["code"])
	})

	t.Run("verified win returns the new loyalty snapshot", func(t *testing.T) {
		customer := testCustomer(nil)
		repo := new(mockCustomerRepo)
		repo.On("FindByID", mock.Anything, "cust-1").Return(customer, nil)
		repo.On("UpdateMetadata", mock.Anything, "cust-1", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				customer.Metadata = args.Get(3).(json.RawMessage)
				customer.MetadataVersion++
			}).
			Return(customer, nil)

		codec := token.NewCodec(handlerTestSecret)
		svc := service.NewGameService(repo, nil, codec, 24*time.Hour, 5*time.Minute)
		h := NewGameHandler(svc)

		started, err := svc.Start(context.Background(), "cust-1")
		require.NoError(t, err)

		claim := service.CompletionClaim{
			Signature:      started.Signature,
			Deck:           started.Deck,
			Nonce:          started.Nonce,
			ExpiresAt:      started.ExpiresAt,
			ElapsedSeconds: 30,
		}
		payload, err := json.Marshal(claim)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/game/complete", bytes.NewBuffer(payload))
		req = withCustomer(req, customer)
		rec := httptest.NewRecorder()

		h.Complete(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body service.CompleteResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, 10, body.PointsAwarded)
		assert.Equal(t, 10, body.CurrentBalance)
		assert.Equal(t, loyalty.TierSeed, body.Tier)
	})

	t.Run("missing customer context", func(t *testing.T) {
		h := newGameHandler(new(mockCustomerRepo))

		req := httptest.NewRequest(http.MethodPost, "/v1/game/complete", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()

		h.Complete(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGameHandlerHistory(t *testing.T) {
	newHistoryHandler := func(events *mockGameEventRepo) *GameHandler {
		codec := token.NewCodec(handlerTestSecret)
		svc := service.NewGameService(new(mockCustomerRepo), events, codec, 24*time.Hour, 5*time.Minute)
		return NewGameHandler(svc)
	}

	t.Run("returns a page of events", func(t *testing.T) {
		events := new(mockGameEventRepo)
		events.On("FindByCustomerID", mock.Anything, "cust-1", 5, 0).Return([]model.GameEvent{
			{CustomerID: "cust-1", Type: model.GameEventSessionWon, PointsAwarded: 10},
		}, nil)

		h := newHistoryHandler(events)

		req := httptest.NewRequest(http.MethodGet, "/v1/game/history?limit=5", nil)
		req = withCustomer(req, testCustomer(nil))
		rec := httptest.NewRecorder()

		h.History(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Events []model.GameEvent `json:"events"`
			Limit  int               `json:"limit"`
			Offset int               `json:"offset"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Events, 1)
		assert.Equal(t, model.GameEventSessionWon, body.Events[0].Type)
		assert.Equal(t, 5, body.Limit)
		assert.Equal(t, 0, body.Offset)
		events.AssertExpectations(t)
	})

	t.Run("out-of-range pagination falls back to defaults", func(t *testing.T) {
		events := new(mockGameEventRepo)
		events.On("FindByCustomerID", mock.Anything, "cust-1", DefaultLimit, 0).Return([]model.GameEvent{}, nil)

		h := newHistoryHandler(events)

		req := httptest.NewRequest(http.MethodGet, "/v1/game/history?limit=5000&offset=-3", nil)
		req = withCustomer(req, testCustomer(nil))
		rec := httptest.NewRecorder()

		h.History(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		events.AssertExpectations(t)
	})

	t.Run("missing customer context", func(t *testing.T) {
		h := newHistoryHandler(new(mockGameEventRepo))

		req := httptest.NewRequest(http.MethodGet, "/v1/game/history", nil)
		rec := httptest.NewRecorder()

		h.History(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
