package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jdazavala/puntoventa-backend/pkg/config"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/metrics"
)

const (
	SelectedOfficial = "official"
	SelectedParallel = "parallel"
)

// Snapshot is the last successfully fetched pair of quotes. Zero values mean
// the feed has not produced a usable rate yet.
type Snapshot struct {
	Official  float64   `json:"official"`
	Parallel  float64   `json:"parallel"`
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
}

// feedPayload mirrors the rate feed's response. Amounts arrive as strings or
// numbers depending on the provider, so they decode through decimal.
type feedPayload struct {
	Official decimal.Decimal `json:"official_rate"`
	Parallel decimal.Decimal `json:"parallel_rate"`
	AsOf     time.Time       `json:"as_of"`
}

// Service polls the exchange-rate feed and serves the last good snapshot.
// Reads never block on a refresh; a failed refresh keeps the previous value.
type Service struct {
	cfg     config.RatesConfig
	client  *http.Client
	logg    *logger.Logger
	metrics *metrics.EngineMetrics

	mu   sync.RWMutex
	last Snapshot
}

func NewService(cfg config.RatesConfig, logg *logger.Logger, engineMetrics *metrics.EngineMetrics) (*Service, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rates: feed URL is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("rates: logger is required")
	}
	if cfg.Selected != SelectedOfficial && cfg.Selected != SelectedParallel {
		return nil, fmt.Errorf("rates: selected quote must be %q or %q, got %q", SelectedOfficial, SelectedParallel, cfg.Selected)
	}

	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logg:    logg,
		metrics: engineMetrics,
	}, nil
}

// Current returns the last good snapshot.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Active returns the selected quote, or 0 while no usable rate exists. Every
// money computation treats 0 as "conversion unavailable".
func (s *Service) Active() float64 {
	snapshot := s.Current()
	if s.cfg.Selected == SelectedParallel {
		return snapshot.Parallel
	}
	return snapshot.Official
}

// Refresh fetches the feed once. Non-positive quotes are kept out of the
// snapshot; a fully unusable response is an error and the previous snapshot
// stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		s.metrics.IncRateRefresh("failure")
		return err
	}
	s.metrics.IncRateRefresh("success")
	return nil
}

func (s *Service) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building rate feed request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching exchange rates")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("rate feed returned status %d", resp.StatusCode))
	}

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding rate feed response")
	}

	official := quoteValue(payload.Official)
	parallel := quoteValue(payload.Parallel)
	if official == 0 && parallel == 0 {
		return pkgerrors.New(pkgerrors.CodeDependency, "rate feed returned no usable quotes")
	}

	s.mu.Lock()
	if official > 0 {
		s.last.Official = official
	}
	if parallel > 0 {
		s.last.Parallel = parallel
	}
	s.last.AsOf = payload.AsOf
	s.last.FetchedAt = time.Now().UTC()
	s.mu.Unlock()
	return nil
}

// quoteValue converts a decoded quote, mapping non-positive values to the
// "unknown" zero.
func quoteValue(quote decimal.Decimal) float64 {
	if quote.Sign() <= 0 {
		return 0
	}
	value, _ := quote.Float64()
	return value
}

// Start refreshes once and then polls on the configured interval until the
// context is cancelled. Poll failures are logged and retried on the next tick.
func (s *Service) Start(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logg.Error(ctx, "initial exchange rate fetch failed", err)
	}

	go func() {
		ticker := time.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.logg.Error(ctx, "exchange rate refresh failed", err)
				}
			}
		}
	}()
}
