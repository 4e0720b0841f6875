package carts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/jdazavala/puntoventa-backend/internal/payments"
	"github.com/jdazavala/puntoventa-backend/pkg/enums"
	pkgerrors "github.com/jdazavala/puntoventa-backend/pkg/errors"
	"github.com/jdazavala/puntoventa-backend/pkg/redis"
)

// Snapshot is the persistence blob: the full session set plus the active id,
// serialized as one JSON value per register.
type Snapshot struct {
	Sessions []CartSession `json:"sessions"`
	ActiveID int           `json:"active_id"`
	SavedAt  time.Time     `json:"saved_at"`
}

// SnapshotStore is the slice of the redis client the cart store needs.
type SnapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	CartSnapshotKey(register string) string
}

// Save serializes the current session set to the snapshot store.
func (s *Store) Save(ctx context.Context, store SnapshotStore, register string) error {
	s.mu.Lock()
	snapshot := Snapshot{
		Sessions: make([]CartSession, 0, len(s.sessions)),
		ActiveID: s.activeID,
		SavedAt:  time.Now().UTC(),
	}
	for _, session := range s.sessions {
		snapshot.Sessions = append(snapshot.Sessions, *session)
	}
	ttl := s.cfg.SnapshotTTL
	s.mu.Unlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing cart snapshot")
	}
	if err := store.Set(ctx, store.CartSnapshotKey(register), payload, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting cart snapshot")
	}
	if s.cfg.SnapshotDebug {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"register": register,
			"sessions": len(snapshot.Sessions),
			"bytes":    len(payload),
		})
		s.logg.Info(ctx, "cart snapshot saved")
	}
	return nil
}

// Restore replaces the session set with the persisted blob. A missing blob is
// not an error; the store keeps its seeded session. Malformed sessions are
// normalized field by field rather than rejected, so a damaged blob degrades
// to whatever subset of it is usable.
func (s *Store) Restore(ctx context.Context, store SnapshotStore, register string) error {
	raw, err := store.Get(ctx, store.CartSnapshotKey(register))
	if err != nil {
		if redis.IsMissing(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart snapshot")
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logg.Warn(ctx, "cart snapshot is not valid JSON, starting fresh")
		return nil
	}

	sessions, activeID, issues := s.normalizeSnapshot(snapshot)
	if issues != nil {
		s.logg.Warn(ctx, fmt.Sprintf("cart snapshot normalized with issues: %v", issues))
	}

	s.mu.Lock()
	s.sessions = sessions
	s.activeID = activeID
	s.mu.Unlock()

	if s.cfg.SnapshotDebug {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"register":  register,
			"sessions":  len(sessions),
			"active_id": activeID,
		})
		s.logg.Info(ctx, "cart snapshot restored")
	}
	return nil
}

// normalizeSnapshot rebuilds a valid session set from whatever shape the blob
// held. Sessions with unusable ids are dropped, per-session fields are
// defaulted, and the active id is re-anchored when it points nowhere.
func (s *Store) normalizeSnapshot(snapshot Snapshot) ([]*CartSession, int, error) {
	var issues error
	seen := make(map[int]bool)
	sessions := make([]*CartSession, 0, len(snapshot.Sessions))

	for i := range snapshot.Sessions {
		session := snapshot.Sessions[i]
		if session.ID < 1 {
			issues = multierr.Append(issues, fmt.Errorf("session at index %d has invalid id %d", i, session.ID))
			continue
		}
		if seen[session.ID] {
			issues = multierr.Append(issues, fmt.Errorf("duplicate session id %d", session.ID))
			continue
		}
		if len(sessions) >= s.cfg.MaxSessions {
			issues = multierr.Append(issues, fmt.Errorf("session %d exceeds the concurrent cart limit", session.ID))
			continue
		}

		issues = multierr.Append(issues, normalizeSession(&session, s.cfg.WizardSteps))
		seen[session.ID] = true
		sessions = append(sessions, &session)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	if len(sessions) == 0 {
		fresh, err := newSession(1, s.cfg.WizardSteps)
		if err != nil {
			// WizardSteps was validated at store construction.
			panic(err)
		}
		return []*CartSession{fresh}, fresh.ID, issues
	}

	activeID := snapshot.ActiveID
	if !seen[activeID] {
		issues = multierr.Append(issues, fmt.Errorf("active id %d not in session set", activeID))
		activeID = sessions[0].ID
	}
	return sessions, activeID, issues
}

func normalizeSession(session *CartSession, wizardSteps int) error {
	var issues error

	if session.Items == nil {
		session.Items = []LineItem{}
	}
	kept := session.Items[:0]
	for _, item := range session.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			issues = multierr.Append(issues, fmt.Errorf("session %d: dropped malformed line %q", session.ID, item.SKU))
			continue
		}
		kept = append(kept, item)
	}
	session.Items = kept

	if !session.Terms.Timing.IsValid() {
		session.Terms = SaleTerms{Timing: enums.PaymentTimingImmediate}
	}
	if session.Terms.Timing == enums.PaymentTimingDeferred && session.Terms.DeferredDays <= 0 {
		session.Terms.DeferredDays = 1
	}
	if !session.DocumentKind.IsValid() {
		session.DocumentKind = enums.DocumentKindOrder
	}
	if !session.SaleKind.IsValid() {
		session.SaleKind = enums.SaleKindSale
	}

	if !session.Payments.Mode.IsValid() {
		session.Payments.Mode = enums.ReconcileModeSingle
	}
	if session.Payments.Entries == nil {
		session.Payments.Entries = []payments.Entry{}
	}
	keptEntries := session.Payments.Entries[:0]
	for _, entry := range session.Payments.Entries {
		if !entry.Method.IsValid() || entry.Amount < 0 {
			issues = multierr.Append(issues, fmt.Errorf("session %d: dropped malformed payment %q", session.ID, entry.Method))
			continue
		}
		entry.Currency = entry.Method.NativeCurrency()
		entry.Reference = strings.TrimSpace(entry.Reference)
		keptEntries = append(keptEntries, entry)
	}
	session.Payments.Entries = keptEntries
	if session.Payments.Mode == enums.ReconcileModeCombined && len(session.Payments.Entries) != 2 {
		issues = multierr.Append(issues, fmt.Errorf("session %d: combined plan missing a leg, cleared", session.ID))
		session.Payments.Clear()
	}

	session.Wizard.Normalize(wizardSteps)
	return issues
}
