package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pnsenthil/smartshop/internal/domain"
)

// EngineMode selects how the generic engine is consulted on a scan
type EngineMode string

const (
	// EngineModeSync blocks the scan until the engine answers
	EngineModeSync EngineMode = "sync"

	// EngineModeAsync returns from the scan immediately and presents the
	// engine's candidate whenever the call resolves. Last write wins: a
	// late-arriving presentation simply overwrites whatever is shown.
	EngineModeAsync EngineMode = "async"
)

const defaultEngineThrottle = 3

// SessionServiceConfig holds configuration for the session coordinator
type SessionServiceConfig struct {
	EngineMode EngineMode
	// EngineThrottle consults the engine only every Nth generic scan.
	// 1 consults on every scan; zero/negative falls back to the default.
	EngineThrottle int
}

// ScanResult reports what a scan did
type ScanResult struct {
	SKU           string                 `json:"sku"`
	Known         bool                   `json:"known"`
	AddedToBasket bool                   `json:"addedToBasket"`
	Nudge         *domain.NudgeCandidate `json:"nudge,omitempty"`
	EnginePending bool                   `json:"enginePending,omitempty"`
}

// DecisionResult reports the outcome of a CTA action. Applied is false when
// no nudge was open, which callers treat as a harmless no-op.
type DecisionResult struct {
	Applied bool                `json:"applied"`
	Basket  []domain.BasketItem `json:"basket"`
}

// BasketLine is a basket item resolved against the catalog for display
type BasketLine struct {
	Product   domain.Product `json:"product"`
	Qty       int            `json:"qty"`
	LineTotal float64        `json:"lineTotal"`
}

// SessionSnapshot is the full session view served to the demo UI
type SessionSnapshot struct {
	ProfileID    string                 `json:"profileId"`
	Basket       []BasketLine           `json:"basket"`
	Total        float64                `json:"total"`
	ItemCount    int                    `json:"itemCount"`
	NudgeHistory []domain.NudgeRecord   `json:"nudgeHistory"`
	OpenNudge    *domain.NudgeCandidate `json:"openNudge,omitempty"`
}

// presentation is the nudge currently awaiting a shopper decision. The
// trigger SKU is empty for generic candidates.
type presentation struct {
	candidate  domain.NudgeCandidate
	triggerSKU string
}

// SessionService owns the single live session and serializes every demo
// event: scans, CTA decisions, checkout and profile switches. It is the
// single writer over the session; the mutex makes HTTP an event queue.
type SessionService struct {
	catalog    domain.CatalogLookup
	profiles   domain.ProfileSource
	engine     domain.NudgeEngine
	registry   *ScenarioRegistry
	resolver   *NudgeResolver
	accountant *CheckoutAccountant
	logger     *zap.Logger

	mode     EngineMode
	throttle int

	mu           sync.Mutex
	session      *domain.Session
	profile      domain.Profile
	generation   uint64
	open         *presentation
	genericScans int
}

// NewSessionService creates the session coordinator with its dependencies
func NewSessionService(
	catalog domain.CatalogLookup,
	profiles domain.ProfileSource,
	engine domain.NudgeEngine,
	cfg SessionServiceConfig,
	logger *zap.Logger,
) *SessionService {
	mode := cfg.EngineMode
	if mode != EngineModeSync && mode != EngineModeAsync {
		mode = EngineModeSync
	}
	throttle := cfg.EngineThrottle
	if throttle < 1 {
		throttle = defaultEngineThrottle
	}

	return &SessionService{
		catalog:    catalog,
		profiles:   profiles,
		engine:     engine,
		registry:   NewScenarioRegistry(profiles),
		resolver:   NewNudgeResolver(catalog),
		accountant: NewCheckoutAccountant(catalog),
		logger:     logger,
		mode:       mode,
		throttle:   throttle,
	}
}

// SelectProfile replaces the live session with a fresh one for the profile.
// Re-selecting the current profile also resets. Any in-flight asynchronous
// engine resolution becomes stale and will be discarded.
func (s *SessionService) SelectProfile(id string) (domain.Profile, error) {
	profile, ok := s.profiles.Profile(id)
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %q", domain.ErrProfileNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceSession(profile)
	s.logger.Info("profile selected", zap.String("profile", id))
	return profile, nil
}

// ReturnHome discards the live session entirely
func (s *SessionService) ReturnHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.session = nil
	s.profile = domain.Profile{}
	s.open = nil
	s.genericScans = 0
	s.logger.Info("session discarded")
}

// replaceSession swaps in a fresh session. Caller holds the lock.
func (s *SessionService) replaceSession(profile domain.Profile) {
	s.generation++
	s.session = domain.NewSession(profile.ID)
	s.profile = profile
	s.open = nil
	s.genericScans = 0
}

// Scan classifies a scanned SKU as scripted or generic and routes it.
// Scripted triggers are offer-only: the product is added on the shopper's
// decision, never by the scan itself. Generic scans add the product first and
// then consult the engine, subject to throttling.
func (s *SessionService) Scan(ctx context.Context, sku string) (ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ScanResult{}, domain.ErrNoSession
	}

	if sc, ok := s.registry.FindByTrigger(s.profile.ID, sku); ok {
		candidate := s.resolver.Resolve(sc)
		s.present(candidate, sc.TriggerSKU, domain.SourceScripted)
		s.logger.Info("scripted nudge presented",
			zap.String("sku", sku),
			zap.String("tag", sc.Tag))
		return ScanResult{SKU: sku, Known: true, Nudge: &candidate}, nil
	}

	if _, ok := s.catalog.Get(sku); !ok {
		// Unknown product: fail soft, mutate nothing, present nothing
		s.logger.Warn("scan ignored for unknown sku", zap.String("sku", sku))
		return ScanResult{SKU: sku, Known: false}, nil
	}

	scan := domain.ScanEvent{SKU: sku, Timestamp: time.Now()}
	s.session.AddItem(sku)
	s.session.RecordScan(scan.SKU, scan.Timestamp)
	result := ScanResult{SKU: sku, Known: true, AddedToBasket: true}

	s.genericScans++
	if s.genericScans%s.throttle != 0 {
		return result, nil
	}

	if s.mode == EngineModeAsync {
		s.dispatchEngineAsync(scan)
		result.EnginePending = true
		return result, nil
	}

	candidate, err := s.engine.Resolve(ctx, s.session, s.profile, scan)
	switch {
	case errors.Is(err, domain.ErrNoCandidate):
		return result, nil
	case err != nil:
		s.logger.Warn("engine resolution failed", zap.String("sku", sku), zap.Error(err))
		return result, nil
	}

	s.present(candidate, "", domain.SourceGeneric)
	result.Nudge = &candidate
	return result, nil
}

// dispatchEngineAsync runs the engine off the event thread. The dispatch is
// tagged with the current session generation; a resolution arriving after the
// session was replaced is dropped rather than applied to the new session.
// Caller holds the lock.
func (s *SessionService) dispatchEngineAsync(scan domain.ScanEvent) {
	generation := s.generation
	snapshot := s.session.Clone()
	profile := s.profile

	go func() {
		candidate, err := s.engine.Resolve(context.Background(), snapshot, profile, scan)
		if err != nil {
			if !errors.Is(err, domain.ErrNoCandidate) {
				s.logger.Warn("async engine resolution failed",
					zap.String("sku", scan.SKU), zap.Error(err))
			}
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if generation != s.generation || s.session == nil {
			s.logger.Debug("stale async resolution dropped",
				zap.String("sku", scan.SKU),
				zap.Uint64("dispatched", generation),
				zap.Uint64("current", s.generation))
			return
		}
		s.present(candidate, "", domain.SourceGeneric)
	}()
}

// present records the candidate in history and makes it the open nudge,
// overwriting any prior presentation. Caller holds the lock. History records
// offers shown, not offers accepted.
func (s *SessionService) present(c domain.NudgeCandidate, triggerSKU string, source domain.NudgeSource) {
	s.session.RecordNudge(c, source, time.Now())
	s.open = &presentation{candidate: c, triggerSKU: triggerSKU}
}

// Accept applies the open nudge: the trigger product first (scripted only),
// then every recommended product, each via increment-or-append. A no-op when
// nothing is open.
func (s *SessionService) Accept() (DecisionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return DecisionResult{}, domain.ErrNoSession
	}
	if s.open == nil {
		return DecisionResult{Basket: s.basketCopy()}, nil
	}

	open := s.open
	if open.triggerSKU != "" {
		s.session.AddItem(open.triggerSKU)
	}
	for _, p := range open.candidate.Products {
		s.session.AddItem(p.SKU)
	}
	s.open = nil

	s.logger.Info("nudge accepted",
		zap.String("candidate", open.candidate.ID),
		zap.String("type", string(open.candidate.Type)))
	return DecisionResult{Applied: true, Basket: s.basketCopy()}, nil
}

// Dismiss resolves the open nudge without taking the offer. Substitute-class
// nudges add the trigger product back ("keep what I was scanning"); every
// other class leaves the basket exactly as it was. A no-op when nothing is
// open.
func (s *SessionService) Dismiss() (DecisionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return DecisionResult{}, domain.ErrNoSession
	}
	if s.open == nil {
		return DecisionResult{Basket: s.basketCopy()}, nil
	}

	open := s.open
	switch open.candidate.Type {
	case domain.TypeSubstitute:
		if open.triggerSKU != "" {
			s.session.AddItem(open.triggerSKU)
		}
	case domain.TypeCompletion, domain.TypeComplement,
		domain.TypeDealCompletion, domain.TypeOccasionUpgrade, domain.TypeGeneric:
		// basket untouched
	}
	s.open = nil

	s.logger.Info("nudge dismissed",
		zap.String("candidate", open.candidate.ID),
		zap.String("type", string(open.candidate.Type)))
	return DecisionResult{Applied: true, Basket: s.basketCopy()}, nil
}

// OpenNudge returns the candidate currently awaiting a decision, if any
func (s *SessionService) OpenNudge() (domain.NudgeCandidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return domain.NudgeCandidate{}, false, domain.ErrNoSession
	}
	if s.open == nil {
		return domain.NudgeCandidate{}, false, nil
	}
	return s.open.candidate, true, nil
}

// Snapshot returns the full session view for the demo UI
func (s *SessionService) Snapshot() (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionSnapshot{}, domain.ErrNoSession
	}

	snap := SessionSnapshot{
		ProfileID:    s.session.ProfileID,
		Basket:       []BasketLine{},
		ItemCount:    s.session.ItemCount(),
		NudgeHistory: append([]domain.NudgeRecord{}, s.session.NudgeHistory...),
	}
	for _, item := range s.session.Basket {
		p, ok := s.catalog.Get(item.SKU)
		if !ok {
			continue
		}
		line := BasketLine{Product: p, Qty: item.Qty, LineTotal: p.Price * float64(item.Qty)}
		snap.Basket = append(snap.Basket, line)
		snap.Total += line.LineTotal
	}
	if s.open != nil {
		candidate := s.open.candidate
		snap.OpenNudge = &candidate
	}
	return snap, nil
}

// CheckoutSummary derives totals, savings and benefit statements from the
// current basket without side effects.
func (s *SessionService) CheckoutSummary() (CheckoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return CheckoutSummary{}, domain.ErrNoSession
	}
	scenarios := s.registry.ScenariosFor(s.profile.ID)
	return s.accountant.Summarize(s.session, s.profile, scenarios), nil
}

// CompleteOrder produces the final summary and then resets the session,
// equivalent to re-selecting the current profile.
func (s *SessionService) CompleteOrder() (CheckoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return CheckoutSummary{}, domain.ErrNoSession
	}
	scenarios := s.registry.ScenariosFor(s.profile.ID)
	summary := s.accountant.Summarize(s.session, s.profile, scenarios)

	s.replaceSession(s.profile)
	s.logger.Info("order completed",
		zap.String("profile", summary.ProfileID),
		zap.Float64("total", summary.Total),
		zap.Float64("savings", summary.Savings))
	return summary, nil
}

// basketCopy snapshots the basket for handing outside the lock. Caller holds
// the lock.
func (s *SessionService) basketCopy() []domain.BasketItem {
	basket := make([]domain.BasketItem, len(s.session.Basket))
	copy(basket, s.session.Basket)
	return basket
}
