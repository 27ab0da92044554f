package usecase

import (
	"context"
	"sync"

	"github.com/pnsenthil/smartshop/internal/domain"
)

// fakeCatalog is an in-memory domain.CatalogLookup for tests
type fakeCatalog map[string]domain.Product

func (c fakeCatalog) Get(sku string) (domain.Product, bool) {
	p, ok := c[sku]
	return p, ok
}

func (c fakeCatalog) All() []domain.Product {
	all := make([]domain.Product, 0, len(c))
	for _, p := range c {
		all = append(all, p)
	}
	return all
}

// testCatalog mirrors the demo catalog entries the scenarios reference
func testCatalog() fakeCatalog {
	return fakeCatalog{
		"milk-2l":              {SKU: "milk-2l", Name: "Semi-Skimmed Milk 2L", Price: 1.20},
		"milk-4l":              {SKU: "milk-4l", Name: "Semi-Skimmed Milk 4L", Price: 2.00},
		"bread-2for2":          {SKU: "bread-2for2", Name: "Wholemeal Loaf", Price: 1.30},
		"greek-yogurt-500g":    {SKU: "greek-yogurt-500g", Name: "Greek Yogurt 500g", Price: 1.80},
		"protein-granola-400g": {SKU: "protein-granola-400g", Name: "High-Protein Granola", Price: 3.50},
		"energy-bar-regular":   {SKU: "energy-bar-regular", Name: "Energy Bar", Price: 1.50},
		"protein-bar-lowsugar": {SKU: "protein-bar-lowsugar", Name: "Low-Sugar Protein Bar", Price: 2.00},
		"bananas-1kg":          {SKU: "bananas-1kg", Name: "Bananas 1kg", Price: 0.90},
		"pasta-500g":           {SKU: "pasta-500g", Name: "Penne Pasta 500g", Price: 0.75},
		"pasta-sauce-jar":      {SKU: "pasta-sauce-jar", Name: "Pasta Sauce", Price: 1.40},
	}
}

// fakeProfiles is an in-memory domain.ProfileSource for tests
type fakeProfiles struct {
	profiles  []domain.Profile
	scenarios map[string][]domain.Scenario
}

func (f *fakeProfiles) AllProfiles() []domain.Profile { return f.profiles }

func (f *fakeProfiles) Profile(id string) (domain.Profile, bool) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Profile{}, false
}

func (f *fakeProfiles) Scenarios(profileID string) []domain.Scenario {
	return f.scenarios[profileID]
}

// testProfiles builds the two demo personas the walkthrough tests exercise
func testProfiles() *fakeProfiles {
	milkScenario := domain.Scenario{
		TriggerSKU:      "milk-2l",
		Type:            domain.TypeOccasionUpgrade,
		Tag:             "family-optimizer",
		Title:           "Family-Size Optimizer",
		Reason:          "Families like yours save by choosing the 4L option.",
		RecommendedSKUs: []string{"milk-4l"},
		Savings:         0.40,
		CTA:             domain.CTAText{Primary: "Swap to 4L", Secondary: "Keep 2L"},
	}
	breadScenario := domain.Scenario{
		TriggerSKU:      "bread-2for2",
		Type:            domain.TypeDealCompletion,
		Tag:             "multibuy-completion",
		Title:           "Complete Your Deal",
		RecommendedSKUs: []string{"bread-2for2"},
		Savings:         0.60,
	}
	yogurtScenario := domain.Scenario{
		TriggerSKU:      "greek-yogurt-500g",
		Type:            domain.TypeComplement,
		Tag:             "protein-complement",
		Title:           "Performance Pairing",
		RecommendedSKUs: []string{"protein-granola-400g"},
		Savings:         0.50,
	}
	barScenario := domain.Scenario{
		TriggerSKU:      "energy-bar-regular",
		Type:            domain.TypeSubstitute,
		Tag:             "better-fit-substitute",
		Title:           "Fitness Upgrade",
		RecommendedSKUs: []string{"protein-bar-lowsugar"},
		Savings:         0,
	}

	return &fakeProfiles{
		profiles: []domain.Profile{
			{
				ID: "budget-family", DisplayName: "Budget-conscious Family Shopper",
				ValueBias: "value", BudgetBand: "low",
				Benefits: []string{"Saved £{savings} with family-size deals"},
			},
			{
				ID: "health-fitness", DisplayName: "Health & Fitness Enthusiast",
				ValueBias: "premium", BudgetBand: "high",
				Benefits: []string{"Made {choices} fitness-focused choices"},
			},
		},
		scenarios: map[string][]domain.Scenario{
			"budget-family":  {milkScenario, breadScenario},
			"health-fitness": {yogurtScenario, barScenario},
		},
	}
}

// fakeEngine is a scriptable domain.NudgeEngine
type fakeEngine struct {
	mu        sync.Mutex
	calls     int
	resolveFn func(ctx context.Context, session *domain.Session, profile domain.Profile, scan domain.ScanEvent) (domain.NudgeCandidate, error)
}

func (e *fakeEngine) Resolve(ctx context.Context, session *domain.Session, profile domain.Profile, scan domain.ScanEvent) (domain.NudgeCandidate, error) {
	e.mu.Lock()
	e.calls++
	fn := e.resolveFn
	e.mu.Unlock()

	if fn == nil {
		return domain.NudgeCandidate{}, domain.ErrNoCandidate
	}
	return fn(ctx, session, profile, scan)
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
