package usecase

import "github.com/pnsenthil/smartshop/internal/domain"

// ScenarioRegistry answers scripted-scenario lookups for the scan dispatcher.
// Matching is by exact trigger SKU equality; the first scenario in profile
// order wins. Side-effect free.
type ScenarioRegistry struct {
	source domain.ProfileSource
}

// NewScenarioRegistry creates a registry over a profile source
func NewScenarioRegistry(source domain.ProfileSource) *ScenarioRegistry {
	return &ScenarioRegistry{source: source}
}

// ScenariosFor returns a profile's scenarios in configured order
func (r *ScenarioRegistry) ScenariosFor(profileID string) []domain.Scenario {
	return r.source.Scenarios(profileID)
}

// FindByTrigger returns the first scenario whose trigger matches the SKU
func (r *ScenarioRegistry) FindByTrigger(profileID, sku string) (domain.Scenario, bool) {
	for _, sc := range r.source.Scenarios(profileID) {
		if sc.TriggerSKU == sku {
			return sc, true
		}
	}
	return domain.Scenario{}, false
}
