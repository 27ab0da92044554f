package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pnsenthil/smartshop/internal/domain"
)

// CheckoutSummary is the checkout-time view over the final basket
type CheckoutSummary struct {
	ProfileID    string  `json:"profileId"`
	ItemCount    int     `json:"itemCount"`
	Total        float64 `json:"total"`
	Savings      float64 `json:"savings"`
	PayableTotal float64 `json:"payableTotal"`
	SmartChoices int     `json:"smartChoices"`
	Benefits     []string `json:"benefits"`
}

// CheckoutAccountant derives savings and profile-flavored benefit statements
// from the final basket. Savings are reconstructed heuristically by matching
// basket items against scenario triggers and recommendations rather than
// replaying the acceptance history, so a product that entered the basket
// outside any nudge still accrues its scenario's savings. That overcount is
// an accepted approximation carried over from the demo.
type CheckoutAccountant struct {
	catalog domain.CatalogLookup
}

// NewCheckoutAccountant creates an accountant over the catalog
func NewCheckoutAccountant(catalog domain.CatalogLookup) *CheckoutAccountant {
	return &CheckoutAccountant{catalog: catalog}
}

// Summarize walks the basket against the profile's scenario list. Each basket
// item matching any scenario's trigger or recommended SKU accrues
// savings x quantity and one smart choice (once per item, not per scenario).
func (a *CheckoutAccountant) Summarize(session *domain.Session, profile domain.Profile, scenarios []domain.Scenario) CheckoutSummary {
	summary := CheckoutSummary{ProfileID: profile.ID, Benefits: []string{}}

	for _, item := range session.Basket {
		if p, ok := a.catalog.Get(item.SKU); ok {
			summary.Total += p.Price * float64(item.Qty)
		}
		summary.ItemCount += item.Qty

		if sc, ok := matchScenario(scenarios, item.SKU); ok {
			summary.Savings += sc.Savings * float64(item.Qty)
			summary.SmartChoices++
		}
	}

	summary.PayableTotal = summary.Total - summary.Savings
	summary.Benefits = renderBenefits(profile.Benefits, summary.Savings, summary.SmartChoices)
	return summary
}

// matchScenario returns the first scenario referencing the SKU as trigger or
// recommendation
func matchScenario(scenarios []domain.Scenario, sku string) (domain.Scenario, bool) {
	for _, sc := range scenarios {
		if sc.TriggerSKU == sku {
			return sc, true
		}
		for _, rec := range sc.RecommendedSKUs {
			if rec == sku {
				return sc, true
			}
		}
	}
	return domain.Scenario{}, false
}

// renderBenefits fills the profile's benefit templates. Supported
// placeholders: {savings} and {choices}.
func renderBenefits(templates []string, savings float64, choices int) []string {
	benefits := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		line := strings.ReplaceAll(tmpl, "{savings}", fmt.Sprintf("%.2f", savings))
		line = strings.ReplaceAll(line, "{choices}", strconv.Itoa(choices))
		benefits = append(benefits, line)
	}
	return benefits
}
