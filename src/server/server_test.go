package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"riskwatch/src/model"
)

type fakePositionReader struct {
	positions []model.Position
}

func (f *fakePositionReader) FindAll(context.Context) ([]model.Position, error) {
	return f.positions, nil
}

type fakeAlertReader struct {
	alerts []model.Alert
}

func (f *fakeAlertReader) FindActive(context.Context) ([]model.Alert, error) {
	return f.alerts, nil
}

type fakeSnapshotReader struct {
	latest *model.PortfolioSnapshot
}

func (f *fakeSnapshotReader) Latest(context.Context) (*model.PortfolioSnapshot, error) {
	return f.latest, nil
}

type fakeLedgerReader struct {
	entries   []model.LedgerEntry
	lastLimit int
}

func (f *fakeLedgerReader) Tail(_ context.Context, limit int) ([]model.LedgerEntry, error) {
	f.lastLimit = limit
	return f.entries, nil
}

func newTestServer(snap *model.PortfolioSnapshot, ledger *fakeLedgerReader) *Server {
	return NewServer(
		&Config{Port: "0", ShutdownTimeout: time.Second},
		&fakePositionReader{positions: []model.Position{{ID: "pos-1", Asset: "BTC"}}},
		&fakeAlertReader{alerts: []model.Alert{{ID: "a1", Asset: "BTC"}}},
		&fakeSnapshotReader{latest: snap},
		ledger,
		nil,
	)
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(nil, &fakeLedgerReader{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestPositionsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &fakeLedgerReader{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var positions []model.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	require.Equal(t, "pos-1", positions[0].ID)
}

func TestAlertsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &fakeLedgerReader{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
}

func TestPortfolioLatest(t *testing.T) {
	snap := &model.PortfolioSnapshot{TotalValue: 10000, TotalCollateral: 5000}
	srv := newTestServer(snap, &fakeLedgerReader{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/latest", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.InDelta(t, 10000, got.TotalValue, 1e-9)
}

func TestPortfolioLatestMissing(t *testing.T) {
	srv := newTestServer(nil, &fakeLedgerReader{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/latest", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedgerEndpointLimit(t *testing.T) {
	ledger := &fakeLedgerReader{entries: []model.LedgerEntry{{CycleID: "c1"}}}
	srv := newTestServer(nil, ledger)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, ledger.lastLimit)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger?limit=junk", nil))
	require.Equal(t, 20, ledger.lastLimit, "bad limit falls back to default")
}
