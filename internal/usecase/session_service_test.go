package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pnsenthil/smartshop/internal/domain"
)

func newTestService(t *testing.T, engine domain.NudgeEngine, cfg SessionServiceConfig) *SessionService {
	t.Helper()
	if engine == nil {
		engine = &fakeEngine{}
	}
	return NewSessionService(testCatalog(), testProfiles(), engine, cfg, zap.NewNop())
}

func mustSelect(t *testing.T, svc *SessionService, profileID string) {
	t.Helper()
	if _, err := svc.SelectProfile(profileID); err != nil {
		t.Fatalf("SelectProfile(%s) error = %v", profileID, err)
	}
}

func mustScan(t *testing.T, svc *SessionService, sku string) ScanResult {
	t.Helper()
	result, err := svc.Scan(context.Background(), sku)
	if err != nil {
		t.Fatalf("Scan(%s) error = %v", sku, err)
	}
	return result
}

func basketOf(t *testing.T, svc *SessionService) map[string]int {
	t.Helper()
	snap, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	basket := make(map[string]int)
	for _, line := range snap.Basket {
		basket[line.Product.SKU] = line.Qty
	}
	return basket
}

func assertBasket(t *testing.T, svc *SessionService, want map[string]int) {
	t.Helper()
	got := basketOf(t, svc)
	if len(got) != len(want) {
		t.Fatalf("basket = %v, want %v", got, want)
	}
	for sku, qty := range want {
		if got[sku] != qty {
			t.Errorf("basket[%s] = %d, want %d", sku, got[sku], qty)
		}
	}
}

func TestScanScriptedPath(t *testing.T) {
	t.Run("scripted trigger never immediately adds to the basket", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "milk-2l")
		if result.AddedToBasket {
			t.Error("AddedToBasket = true, scripted triggers are offer-only")
		}
		if result.Nudge == nil {
			t.Fatal("Nudge = nil, want presented candidate")
		}
		if result.Nudge.Title != "Family-Size Optimizer" {
			t.Errorf("Nudge.Title = %s, want Family-Size Optimizer", result.Nudge.Title)
		}
		if result.Nudge.Savings != 0.40 {
			t.Errorf("Nudge.Savings = %.2f, want 0.40", result.Nudge.Savings)
		}
		assertBasket(t, svc, map[string]int{})
	})

	t.Run("accept adds trigger and recommended products", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "milk-2l")

		result, err := svc.Accept()
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if !result.Applied {
			t.Error("Applied = false, want true")
		}
		assertBasket(t, svc, map[string]int{"milk-2l": 1, "milk-4l": 1})
	})

	t.Run("non-substitute dismiss leaves basket untouched", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "milk-2l")

		result, err := svc.Dismiss()
		if err != nil {
			t.Fatalf("Dismiss() error = %v", err)
		}
		if !result.Applied {
			t.Error("Applied = false, want true")
		}
		assertBasket(t, svc, map[string]int{})
	})

	t.Run("substitute dismiss adds exactly the trigger", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "health-fitness")
		mustScan(t, svc, "energy-bar-regular")

		if _, err := svc.Dismiss(); err != nil {
			t.Fatalf("Dismiss() error = %v", err)
		}
		assertBasket(t, svc, map[string]int{"energy-bar-regular": 1})
	})

	t.Run("substitute accept adds trigger plus substitute", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "health-fitness")
		mustScan(t, svc, "energy-bar-regular")

		if _, err := svc.Accept(); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		assertBasket(t, svc, map[string]int{"energy-bar-regular": 1, "protein-bar-lowsugar": 1})
	})

	t.Run("accept increments existing quantities", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "bananas-1kg") // generic path, adds directly
		mustScan(t, svc, "milk-2l")
		if _, err := svc.Accept(); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		mustScan(t, svc, "milk-2l")
		if _, err := svc.Accept(); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		assertBasket(t, svc, map[string]int{"bananas-1kg": 1, "milk-2l": 2, "milk-4l": 2})
	})
}

func TestScanGenericPath(t *testing.T) {
	t.Run("non-scenario scan adds product unconditionally", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "bananas-1kg")
		if !result.Known || !result.AddedToBasket {
			t.Errorf("result = %+v, want known and added", result)
		}
		assertBasket(t, svc, map[string]int{"bananas-1kg": 1})
	})

	t.Run("unknown SKU mutates nothing and presents nothing", func(t *testing.T) {
		engine := &fakeEngine{}
		svc := newTestService(t, engine, SessionServiceConfig{EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "mystery-item")
		if result.Known || result.AddedToBasket || result.Nudge != nil {
			t.Errorf("result = %+v, want complete no-op", result)
		}
		assertBasket(t, svc, map[string]int{})
		if engine.callCount() != 0 {
			t.Errorf("engine calls = %d, want 0 for unknown SKU", engine.callCount())
		}

		snap, _ := svc.Snapshot()
		if len(snap.NudgeHistory) != 0 {
			t.Errorf("nudge history length = %d, want 0", len(snap.NudgeHistory))
		}
	})

	t.Run("sync engine candidate is presented as generic", func(t *testing.T) {
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, scan domain.ScanEvent) (domain.NudgeCandidate, error) {
				return domain.NudgeCandidate{
					ID: "engine-1", Type: domain.TypeGeneric, Tag: "complement",
					Title:    "Dinner Pairing",
					Products: []domain.Product{{SKU: "pasta-sauce-jar", Name: "Pasta Sauce", Price: 1.40}},
					Score:    0.72,
				}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeSync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "pasta-500g")
		if result.Nudge == nil {
			t.Fatal("Nudge = nil, want engine candidate")
		}
		if result.Nudge.Type != domain.TypeGeneric {
			t.Errorf("Nudge.Type = %s, want generic", result.Nudge.Type)
		}
		// The scanned product is already in the basket; the candidate is open
		assertBasket(t, svc, map[string]int{"pasta-500g": 1})
	})

	t.Run("generic dismiss adds nothing", func(t *testing.T) {
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				return domain.NudgeCandidate{ID: "engine-1", Type: domain.TypeGeneric, Score: 0.5,
					Products: []domain.Product{{SKU: "pasta-sauce-jar"}}}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeSync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "pasta-500g")

		if _, err := svc.Dismiss(); err != nil {
			t.Fatalf("Dismiss() error = %v", err)
		}
		assertBasket(t, svc, map[string]int{"pasta-500g": 1})
	})

	t.Run("generic accept adds only recommended products", func(t *testing.T) {
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				return domain.NudgeCandidate{ID: "engine-1", Type: domain.TypeGeneric, Score: 0.5,
					Products: []domain.Product{{SKU: "pasta-sauce-jar"}}}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeSync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "pasta-500g")

		if _, err := svc.Accept(); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		// No separate trigger-add: the scan already added pasta-500g
		assertBasket(t, svc, map[string]int{"pasta-500g": 1, "pasta-sauce-jar": 1})
	})

	t.Run("engine failure degrades to scan-only", func(t *testing.T) {
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				return domain.NudgeCandidate{}, context.DeadlineExceeded
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeSync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "bananas-1kg")
		if result.Nudge != nil {
			t.Error("Nudge != nil, want none on engine failure")
		}
		assertBasket(t, svc, map[string]int{"bananas-1kg": 1})
	})

	t.Run("throttling consults the engine every Nth generic scan", func(t *testing.T) {
		engine := &fakeEngine{}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeSync, EngineThrottle: 3})
		mustSelect(t, svc, "budget-family")

		mustScan(t, svc, "bananas-1kg")
		mustScan(t, svc, "bananas-1kg")
		if engine.callCount() != 0 {
			t.Fatalf("engine calls after 2 scans = %d, want 0", engine.callCount())
		}
		mustScan(t, svc, "bananas-1kg")
		if engine.callCount() != 1 {
			t.Errorf("engine calls after 3 scans = %d, want 1", engine.callCount())
		}
	})
}

func TestNudgeHistory(t *testing.T) {
	t.Run("every presentation appends exactly one record", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")

		mustScan(t, svc, "milk-2l")
		if _, err := svc.Accept(); err != nil {
			t.Fatal(err)
		}
		mustScan(t, svc, "bread-2for2")
		if _, err := svc.Dismiss(); err != nil {
			t.Fatal(err)
		}

		snap, _ := svc.Snapshot()
		if len(snap.NudgeHistory) != 2 {
			t.Fatalf("history length = %d, want 2 (records offers shown, not accepted)", len(snap.NudgeHistory))
		}
		if snap.NudgeHistory[0].Source != domain.SourceScripted {
			t.Errorf("history[0].Source = %s, want scripted", snap.NudgeHistory[0].Source)
		}
	})

	t.Run("new scan while a nudge is open overwrites it", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")

		mustScan(t, svc, "milk-2l")
		mustScan(t, svc, "bread-2for2")

		open, ok, err := svc.OpenNudge()
		if err != nil || !ok {
			t.Fatalf("OpenNudge() = ok %v err %v, want open nudge", ok, err)
		}
		if open.Tag != "multibuy-completion" {
			t.Errorf("open.Tag = %s, want multibuy-completion (last write wins)", open.Tag)
		}

		// The overwritten milk nudge was still recorded, and resolving the
		// bread nudge must not apply milk semantics
		snap, _ := svc.Snapshot()
		if len(snap.NudgeHistory) != 2 {
			t.Errorf("history length = %d, want 2", len(snap.NudgeHistory))
		}
		if _, err := svc.Dismiss(); err != nil {
			t.Fatal(err)
		}
		assertBasket(t, svc, map[string]int{})
	})
}

func TestCTAIdempotence(t *testing.T) {
	svc := newTestService(t, nil, SessionServiceConfig{})
	mustSelect(t, svc, "budget-family")

	t.Run("accept with no open nudge is a no-op", func(t *testing.T) {
		result, err := svc.Accept()
		if err != nil {
			t.Fatalf("Accept() error = %v, want nil (defensive no-op)", err)
		}
		if result.Applied {
			t.Error("Applied = true, want false")
		}
	})

	t.Run("dismiss after resolution is a no-op", func(t *testing.T) {
		mustScan(t, svc, "milk-2l")
		if _, err := svc.Accept(); err != nil {
			t.Fatal(err)
		}
		before := basketOf(t, svc)

		result, err := svc.Dismiss()
		if err != nil {
			t.Fatalf("Dismiss() error = %v, want nil", err)
		}
		if result.Applied {
			t.Error("Applied = true, want false (stale CTA ignored)")
		}
		assertBasket(t, svc, before)
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("profile switch resets everything", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "bananas-1kg")
		mustScan(t, svc, "milk-2l") // leaves a nudge open

		mustSelect(t, svc, "health-fitness")

		snap, err := svc.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if snap.ProfileID != "health-fitness" {
			t.Errorf("ProfileID = %s, want health-fitness", snap.ProfileID)
		}
		if len(snap.Basket) != 0 || len(snap.NudgeHistory) != 0 || snap.OpenNudge != nil {
			t.Errorf("snapshot = %+v, want fully reset session", snap)
		}
	})

	t.Run("re-selecting the same profile also resets", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "bananas-1kg")

		mustSelect(t, svc, "budget-family")
		assertBasket(t, svc, map[string]int{})
	})

	t.Run("return home discards the session", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "bananas-1kg")

		svc.ReturnHome()
		if _, err := svc.Snapshot(); err != domain.ErrNoSession {
			t.Errorf("Snapshot() after home error = %v, want ErrNoSession", err)
		}
		if _, err := svc.Scan(context.Background(), "bananas-1kg"); err != domain.ErrNoSession {
			t.Errorf("Scan() after home error = %v, want ErrNoSession", err)
		}
	})

	t.Run("unknown profile is rejected", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		if _, err := svc.SelectProfile("nobody"); err == nil {
			t.Error("SelectProfile(nobody) error = nil, want ErrProfileNotFound")
		}
	})

	t.Run("complete order summarizes then resets", func(t *testing.T) {
		svc := newTestService(t, nil, SessionServiceConfig{})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "milk-2l")
		if _, err := svc.Accept(); err != nil {
			t.Fatal(err)
		}

		summary, err := svc.CompleteOrder()
		if err != nil {
			t.Fatalf("CompleteOrder() error = %v", err)
		}
		if summary.ItemCount != 2 {
			t.Errorf("ItemCount = %d, want 2", summary.ItemCount)
		}
		if !almostEqual(summary.Total, 3.20) {
			t.Errorf("Total = %.2f, want 3.20 (milk-2l 1.20 + milk-4l 2.00)", summary.Total)
		}
		if !almostEqual(summary.Savings, 0.80) {
			t.Errorf("Savings = %.2f, want 0.80", summary.Savings)
		}

		// Session reset, same profile
		snap, err := svc.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot() after completion error = %v", err)
		}
		if snap.ProfileID != "budget-family" || len(snap.Basket) != 0 {
			t.Errorf("snapshot after completion = %+v, want empty budget-family session", snap)
		}
	})
}

func TestAsyncEngine(t *testing.T) {
	t.Run("async candidate is presented when the call resolves", func(t *testing.T) {
		release := make(chan struct{})
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				<-release
				return domain.NudgeCandidate{ID: "late-1", Type: domain.TypeGeneric, Score: 0.5,
					Products: []domain.Product{{SKU: "pasta-sauce-jar"}}}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeAsync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")

		result := mustScan(t, svc, "pasta-500g")
		if !result.EnginePending {
			t.Error("EnginePending = false, want true in async mode")
		}
		if result.Nudge != nil {
			t.Error("Nudge != nil, want deferred presentation")
		}

		close(release)
		waitForOpenNudge(t, svc, "late-1")
	})

	t.Run("stale resolution after profile switch is discarded", func(t *testing.T) {
		release := make(chan struct{})
		resolved := make(chan struct{})
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				<-release
				defer close(resolved)
				return domain.NudgeCandidate{ID: "stale-1", Type: domain.TypeGeneric, Score: 0.5,
					Products: []domain.Product{{SKU: "pasta-sauce-jar"}}}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeAsync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")
		mustScan(t, svc, "pasta-500g")

		// Replace the session while the engine call is in flight
		mustSelect(t, svc, "health-fitness")
		close(release)
		<-resolved
		time.Sleep(20 * time.Millisecond) // let the goroutine hit the generation check

		if _, ok, _ := svc.OpenNudge(); ok {
			t.Error("OpenNudge() open after profile switch, want stale resolution dropped")
		}
		snap, _ := svc.Snapshot()
		if len(snap.NudgeHistory) != 0 {
			t.Errorf("new session history length = %d, want 0", len(snap.NudgeHistory))
		}
	})

	t.Run("later scripted nudge survives earlier async arrival ordering", func(t *testing.T) {
		release := make(chan struct{})
		engine := &fakeEngine{
			resolveFn: func(_ context.Context, _ *domain.Session, _ domain.Profile, _ domain.ScanEvent) (domain.NudgeCandidate, error) {
				<-release
				return domain.NudgeCandidate{ID: "late-2", Type: domain.TypeGeneric, Score: 0.5,
					Products: []domain.Product{{SKU: "pasta-sauce-jar"}}}, nil
			},
		}
		svc := newTestService(t, engine, SessionServiceConfig{EngineMode: EngineModeAsync, EngineThrottle: 1})
		mustSelect(t, svc, "budget-family")

		mustScan(t, svc, "pasta-500g") // async dispatch, still blocked
		mustScan(t, svc, "milk-2l")    // scripted, presented immediately

		// The async candidate arrives after the scripted one: last write wins
		close(release)
		waitForOpenNudge(t, svc, "late-2")

		snap, _ := svc.Snapshot()
		if len(snap.NudgeHistory) != 2 {
			t.Errorf("history length = %d, want 2 (both presentations recorded)", len(snap.NudgeHistory))
		}
	})
}

// waitForOpenNudge polls until the candidate with the given id is open
func waitForOpenNudge(t *testing.T, svc *SessionService, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok, _ := svc.OpenNudge(); ok && c.ID == id {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("candidate %s never presented", id)
}
