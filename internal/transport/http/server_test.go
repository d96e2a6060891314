package deskhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockdesk/internal/calendar"
	"stockdesk/internal/compliance"
	"stockdesk/internal/ledger"
	"stockdesk/internal/service"
	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	snap types.Snapshot
}

func (m *memLedger) EnsureAgent(context.Context, string, store.AgentSeed) error { return nil }

func (m *memLedger) LoadSnapshot(_ context.Context, agentID, _ string) (*types.Snapshot, error) {
	if agentID != m.snap.State.AgentID {
		return nil, types.ErrAgentNotFound
	}
	snap := m.snap
	return &snap, nil
}

func (m *memLedger) ApplyTrade(_ context.Context, w store.TradeWrite) (int64, error) {
	if w.ExpectedVersion != m.snap.State.Version {
		return 0, types.ErrVersionConflict
	}
	m.snap.State.Version++
	m.snap.State.TradeQuota = w.Quota
	m.snap.Wallet.CashBalance = m.snap.Wallet.CashBalance.Add(w.CashDelta)
	return m.snap.State.Version, nil
}

func (m *memLedger) ResetQuota(context.Context, string, string) error { return nil }
func (m *memLedger) UpdateValuations(context.Context, string, map[string]decimal.Decimal) error {
	return nil
}
func (m *memLedger) UpdateMarketView(context.Context, string, int64, string, map[string]any) error {
	return nil
}
func (m *memLedger) Wallet(_ context.Context, agentID string) (*types.Wallet, error) {
	if agentID != m.snap.State.AgentID {
		return nil, types.ErrAgentNotFound
	}
	w := m.snap.Wallet
	return &w, nil
}
func (m *memLedger) Positions(context.Context, string) ([]types.Position, error) { return nil, nil }
func (m *memLedger) Transactions(context.Context, string, int) ([]types.Transaction, error) {
	return nil, nil
}
func (m *memLedger) AgentIDs(context.Context) ([]string, error) {
	return []string{m.snap.State.AgentID}, nil
}
func (m *memLedger) Close() error { return nil }

type memAudit struct{ rows []store.Violation }

func (m *memAudit) RecordViolation(_ context.Context, v store.Violation) error {
	m.rows = append(m.rows, v)
	return nil
}
func (m *memAudit) RecentViolations(context.Context, string, time.Time) ([]store.Violation, error) {
	return m.rows, nil
}
func (m *memAudit) Close() error { return nil }

type memUniverse struct{}

func (memUniverse) Lookup(symbol string) (types.Instrument, bool) {
	if symbol != "AAPL" {
		return types.Instrument{}, false
	}
	return types.Instrument{Symbol: "AAPL", Type: "stock", Enabled: true}, true
}

type memOracle struct{}

func (memOracle) GetPrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(150), nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	clock := fixedClock{time.Date(2026, 8, 14, 15, 0, 0, 0, time.UTC)} // Friday
	l := &memLedger{snap: types.Snapshot{
		Wallet: types.Wallet{
			AgentID:       "alpha",
			CashBalance:   decimal.NewFromInt(100000),
			LongTermCash:  decimal.NewFromInt(50000),
			ShortTermCash: decimal.NewFromInt(50000),
		},
		State: types.AgentState{
			AgentID:    "alpha",
			Version:    1,
			TradeQuota: types.TradeQuota{Limit: 5, PeriodKey: "2026-08"},
		},
	}}
	audit := &memAudit{}
	validator := compliance.NewValidator(memUniverse{}, audit, compliance.Params{
		WashTradeDays: 30,
		QuotaPeriod:   calendar.PeriodMonth,
		Clock:         clock,
	})
	executor := ledger.NewExecutor(l, calendar.PeriodMonth, clock)
	desk := service.NewDesk(l, audit, validator, executor, memOracle{}, service.Params{
		QuotaLimit:         5,
		QuotaPeriod:        calendar.PeriodMonth,
		InitialCapital:     decimal.NewFromInt(100000),
		LongTermShare:      decimal.NewFromFloat(0.5),
		EnforceTradingDay:  true,
		MaxConflictRetries: 3,
		Clock:              clock,
	})
	srv, err := NewServer(ServerConfig{Addr: ":0", Desk: desk})
	require.NoError(t, err)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateAgent(t *testing.T) {
	srv := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents", `{"agent_id":"alpha"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitDecisionEndpoint(t *testing.T) {
	t.Run("accepted decision returns receipt", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions",
			`{"symbol":"AAPL","action":"BUY","quantity":10,"position_type":"SHORT_TERM"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var receipt types.Receipt
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
		assert.True(t, receipt.Applied)
		assert.Equal(t, int64(2), receipt.StateVersion)
		assert.True(t, receipt.TotalAmount.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("dry run", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions?dry_run=true",
			`{"symbol":"AAPL","action":"BUY","quantity":10,"position_type":"SHORT_TERM"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var receipt types.Receipt
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
		assert.False(t, receipt.Applied)
	})

	t.Run("schema violation is a 400", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions",
			`{"symbol":"AAPL","action":"SHORT","quantity":10,"position_type":"SHORT_TERM"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("fractional quantity rejected by schema", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions",
			`{"symbol":"AAPL","action":"BUY","quantity":1.5,"position_type":"SHORT_TERM"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("compliance rejection is a 422 with the rule", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions",
			`{"symbol":"MSFT","action":"BUY","quantity":1,"position_type":"SHORT_TERM"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rule":"UNIVERSE"`)
	})

	t.Run("unknown agent is a 404", func(t *testing.T) {
		srv := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/agents/ghost/decisions",
			`{"symbol":"AAPL","action":"BUY","quantity":1,"position_type":"SHORT_TERM"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPortfolioEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/agents/alpha/portfolio", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"wallet"`)
	})

	t.Run("unknown agent", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/agents/ghost/portfolio", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestViolationsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	// trigger one rejection first
	doRequest(t, srv, http.MethodPost, "/api/v1/agents/alpha/decisions",
		`{"symbol":"MSFT","action":"BUY","quantity":1,"position_type":"SHORT_TERM"}`)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/agents/alpha/violations?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNIVERSE_VIOLATION")
}

func TestListAgentsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/v1/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alpha")
}
