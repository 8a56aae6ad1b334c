package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hub-backend/internal/shared/metrics"
)

// ExpiryPolicy decides what happens to a record whose period has ended.
type ExpiryPolicy string

const (
	// PolicyRenew starts a new period on the same tier with zeroed counts.
	PolicyRenew ExpiryPolicy = "renew"
	// PolicyStrict refuses checks and consumes until the tier is changed.
	PolicyStrict ExpiryPolicy = "strict"
)

// MeterConfig tunes a Meter. Zero values select the defaults.
type MeterConfig struct {
	DefaultTier string
	Policy      ExpiryPolicy
	Now         func() time.Time
}

// Meter gates and counts per-agent usage. It is the only writer of usage records.
type Meter struct {
	store       Store
	tiers       *TierTable
	defaultTier string
	policy      ExpiryPolicy
	now         func() time.Time
}

// NewMeter builds a Meter over store. The default tier must exist in tiers.
func NewMeter(store Store, tiers *TierTable, cfg MeterConfig) (*Meter, error) {
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = "free"
	}
	if _, ok := tiers.Get(cfg.DefaultTier); !ok {
		return nil, fmt.Errorf("default tier %q: %w", cfg.DefaultTier, ErrUnknownTier)
	}
	if cfg.Policy != PolicyStrict {
		cfg.Policy = PolicyRenew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Meter{
		store:       store,
		tiers:       tiers,
		defaultTier: cfg.DefaultTier,
		policy:      cfg.Policy,
		now:         cfg.Now,
	}, nil
}

// Tiers returns the configured tier table.
func (m *Meter) Tiers() *TierTable {
	return m.tiers
}

// Policy returns the active expiry policy.
func (m *Meter) Policy() ExpiryPolicy {
	return m.policy
}

// Status returns the user's tier, record, and remaining quota, creating the
// record on first access. Under the renew policy an expired period is renewed.
func (m *Meter) Status(ctx context.Context, userID string) (Status, error) {
	now := m.clock()
	rec, err := m.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec, err = m.store.Update(ctx, userID, func(r *Record, exists bool) (bool, error) {
			if exists {
				return m.renewIfExpired(r, now), nil
			}
			*r = m.freshRecord(userID, m.defaultTier, now)
			return true, nil
		})
	case err == nil && rec.Expired(now) && m.policy == PolicyRenew:
		rec, err = m.store.Update(ctx, userID, func(r *Record, exists bool) (bool, error) {
			if !exists {
				*r = m.freshRecord(userID, m.defaultTier, now)
				return true, nil
			}
			return m.renewIfExpired(r, now), nil
		})
	}
	if err != nil {
		return Status{}, err
	}

	tier, ok := m.tiers.Get(rec.TierID)
	if !ok {
		return Status{}, fmt.Errorf("record tier %q: %w", rec.TierID, ErrUnknownTier)
	}
	remaining := make(map[string]int, len(tier.Limits))
	for agentID, limit := range tier.Limits {
		remaining[agentID] = clampRemaining(limit - rec.Counts[agentID])
	}
	return Status{
		Tier:      tier,
		Record:    rec,
		Remaining: remaining,
		Expired:   rec.Expired(now),
	}, nil
}

// Check reports whether agentID may run now without changing any state.
func (m *Meter) Check(ctx context.Context, userID, agentID string) (Decision, error) {
	now := m.clock()
	rec, err := m.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec = m.freshRecord(userID, m.defaultTier, now)
	case err != nil:
		return Decision{}, err
	}
	if rec.Expired(now) {
		if m.policy == PolicyStrict {
			return Decision{}, ErrPeriodExpired
		}
		rec = m.freshRecord(userID, rec.TierID, now)
	}
	tier, limit, err := m.limitFor(rec.TierID, agentID)
	if err != nil {
		return Decision{}, err
	}
	used := rec.Counts[agentID]
	remaining := limit - used
	return Decision{
		AgentID:   agentID,
		TierID:    tier.ID,
		Allowed:   remaining > 0,
		Remaining: clampRemaining(remaining),
		Used:      used,
		Limit:     limit,
	}, nil
}

// TryConsume counts one use of agentID when quota remains. The read and the
// increment happen in one store transaction. A denial leaves state untouched.
func (m *Meter) TryConsume(ctx context.Context, userID, agentID string) (Decision, error) {
	now := m.clock()
	var decision Decision
	_, err := m.store.Update(ctx, userID, func(r *Record, exists bool) (bool, error) {
		write := false
		if !exists {
			*r = m.freshRecord(userID, m.defaultTier, now)
			write = true
		} else if r.Expired(now) {
			if m.policy == PolicyStrict {
				return false, ErrPeriodExpired
			}
			m.renewIfExpired(r, now)
			write = true
		}

		tier, limit, err := m.limitFor(r.TierID, agentID)
		if err != nil {
			return false, err
		}
		used := r.Counts[agentID]
		decision = Decision{AgentID: agentID, TierID: tier.ID, Used: used, Limit: limit}
		if limit-used <= 0 {
			decision.Remaining = 0
			return write, nil
		}
		if r.Counts == nil {
			r.Counts = map[string]int{}
		}
		r.Counts[agentID] = used + 1
		r.UpdatedAt = now
		decision.Allowed = true
		decision.Used = used + 1
		decision.Remaining = clampRemaining(limit - used - 1)
		return true, nil
	})
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		metrics.IncUsageDenied(agentID)
	}
	return decision, nil
}

// ChangeTier moves the user to tierID, zeroes every count, and starts a new
// period ending exactly Period from now.
func (m *Meter) ChangeTier(ctx context.Context, userID, tierID string) (Record, error) {
	if _, ok := m.tiers.Get(tierID); !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownTier, tierID)
	}
	now := m.clock()
	return m.store.Update(ctx, userID, func(r *Record, exists bool) (bool, error) {
		*r = m.freshRecord(userID, tierID, now)
		return true, nil
	})
}

// Reset zeroes the user's counts and starts a new period on the current tier.
func (m *Meter) Reset(ctx context.Context, userID string) (Record, error) {
	now := m.clock()
	return m.store.Update(ctx, userID, func(r *Record, exists bool) (bool, error) {
		tierID := m.defaultTier
		if exists {
			if _, ok := m.tiers.Get(r.TierID); ok {
				tierID = r.TierID
			}
		}
		*r = m.freshRecord(userID, tierID, now)
		return true, nil
	})
}

func (m *Meter) limitFor(tierID, agentID string) (Tier, int, error) {
	tier, ok := m.tiers.Get(tierID)
	if !ok {
		return Tier{}, 0, fmt.Errorf("record tier %q: %w", tierID, ErrUnknownTier)
	}
	limit, ok := tier.Limits[agentID]
	if !ok {
		return Tier{}, 0, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	return tier, limit, nil
}

// renewIfExpired restarts an expired period in place and reports whether it did.
func (m *Meter) renewIfExpired(r *Record, now time.Time) bool {
	if !r.Expired(now) || m.policy != PolicyRenew {
		return false
	}
	*r = m.freshRecord(r.UserID, r.TierID, now)
	return true
}

func (m *Meter) freshRecord(userID, tierID string, now time.Time) Record {
	counts := make(map[string]int)
	if tier, ok := m.tiers.Get(tierID); ok {
		for agentID := range tier.Limits {
			counts[agentID] = 0
		}
	}
	return Record{
		UserID:      userID,
		TierID:      tierID,
		PeriodStart: now,
		PeriodEnd:   now.Add(Period),
		Counts:      counts,
		UpdatedAt:   now,
	}
}

func (m *Meter) clock() time.Time {
	return m.now().UTC()
}

func clampRemaining(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
