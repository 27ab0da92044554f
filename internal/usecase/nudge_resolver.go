package usecase

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pnsenthil/smartshop/internal/domain"
)

// scriptedScore is the fixed relevance score of scenario nudges. Scripted
// scenarios are authoritative by construction, which distinguishes them from
// engine-scored candidates whose score may be lower.
const scriptedScore = 1.0

// NudgeResolver converts a matched scenario into a displayable candidate
type NudgeResolver struct {
	catalog domain.CatalogLookup
}

// NewNudgeResolver creates a resolver over the catalog
func NewNudgeResolver(catalog domain.CatalogLookup) *NudgeResolver {
	return &NudgeResolver{catalog: catalog}
}

// Resolve builds a fresh candidate from a scenario. Recommended SKUs missing
// from the catalog are dropped silently; the candidate itself never fails.
func (r *NudgeResolver) Resolve(sc domain.Scenario) domain.NudgeCandidate {
	products := make([]domain.Product, 0, len(sc.RecommendedSKUs))
	for _, sku := range sc.RecommendedSKUs {
		if p, ok := r.catalog.Get(sku); ok {
			products = append(products, p)
		}
	}

	return domain.NudgeCandidate{
		ID:       fmt.Sprintf("scenario-%s-%s", sc.Tag, uuid.NewString()),
		Type:     sc.Type,
		Tag:      sc.Tag,
		Title:    sc.Title,
		Reason:   sc.Reason,
		Products: products,
		Savings:  sc.Savings,
		Score:    scriptedScore,
	}
}
