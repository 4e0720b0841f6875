package rates

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdazavala/puntoventa-backend/pkg/config"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
}

func newTestService(t *testing.T, url, selected string) *Service {
	t.Helper()
	svc, err := NewService(config.RatesConfig{
		URL:             url,
		RefreshInterval: time.Minute,
		RequestTimeout:  time.Second,
		Selected:        selected,
	}, testLogger(), nil)
	require.NoError(t, err)
	return svc
}

func TestRefreshParsesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"official_rate": "36.58", "parallel_rate": 41.2, "as_of": "2025-08-12T09:00:00Z"}`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, SelectedOfficial)
	require.NoError(t, svc.Refresh(context.Background()))

	snapshot := svc.Current()
	assert.InDelta(t, 36.58, snapshot.Official, 1e-9)
	assert.InDelta(t, 41.2, snapshot.Parallel, 1e-9)
	assert.False(t, snapshot.FetchedAt.IsZero())
	assert.InDelta(t, 36.58, svc.Active(), 1e-9)
}

func TestActiveSelectsParallelQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"official_rate": 36.58, "parallel_rate": 41.2}`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, SelectedParallel)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.InDelta(t, 41.2, svc.Active(), 1e-9)
}

func TestRefreshFailureKeepsLastGoodSnapshot(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"official_rate": 36.58, "parallel_rate": 41.2}`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, SelectedOfficial)
	require.NoError(t, svc.Refresh(context.Background()))

	healthy = false
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.InDelta(t, 36.58, svc.Active(), 1e-9)
}

func TestRefreshRejectsUnusableQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"official_rate": 0, "parallel_rate": -3}`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, SelectedOfficial)
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.InDelta(t, 0.0, svc.Active(), 1e-9)
}

func TestActiveIsZeroBeforeFirstFetch(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:0", SelectedOfficial)
	assert.InDelta(t, 0.0, svc.Active(), 1e-9)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(config.RatesConfig{Selected: SelectedOfficial}, testLogger(), nil)
	require.Error(t, err)

	_, err = NewService(config.RatesConfig{URL: "http://x", Selected: "street"}, testLogger(), nil)
	require.Error(t, err)

	_, err = NewService(config.RatesConfig{URL: "http://x", Selected: SelectedOfficial}, nil, nil)
	require.Error(t, err)
}
