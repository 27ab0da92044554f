package domain

import "fmt"

// NudgeType is the closed set of nudge classes. The CTA resolver switches
// exhaustively over this set; only TypeSubstitute changes dismiss behavior.
type NudgeType string

const (
	// TypeSubstitute offers a replacement for the scanned product. Dismissing
	// it means "keep what I was scanning", which adds the trigger product.
	TypeSubstitute NudgeType = "substitute"

	// TypeCompletion completes a meal or mission (e.g. curry + rice)
	TypeCompletion NudgeType = "completion"

	// TypeComplement pairs a related product with the scanned one
	TypeComplement NudgeType = "complement"

	// TypeDealCompletion completes a multi-buy deal threshold
	TypeDealCompletion NudgeType = "deal-completion"

	// TypeOccasionUpgrade upgrades the purchase (bigger size, better occasion)
	TypeOccasionUpgrade NudgeType = "occasion-upgrade"

	// TypeGeneric marks engine-scored nudges with no scripted scenario
	TypeGeneric NudgeType = "generic"
)

// ParseNudgeType validates a configured nudge type string. Unknown values are
// a configuration error, not a silent fallthrough.
func ParseNudgeType(s string) (NudgeType, error) {
	switch t := NudgeType(s); t {
	case TypeSubstitute, TypeCompletion, TypeComplement,
		TypeDealCompletion, TypeOccasionUpgrade, TypeGeneric:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNudgeType, s)
}

// CTAText holds the two call-to-action labels of a scenario
type CTAText struct {
	Primary   string `json:"primary"`   // accept
	Secondary string `json:"secondary"` // dismiss
}

// PersuasiveCopy is the marketing copy attached to a scripted scenario
type PersuasiveCopy struct {
	Headline string `json:"headline"`
	Subtext  string `json:"subtext"`
	Urgency  string `json:"urgency,omitempty"`
}

// Scenario is a scripted, profile-specific offer bound to a trigger product.
// Scenarios are immutable configuration, ordered per profile; the first
// scenario whose trigger matches a scan wins.
type Scenario struct {
	TriggerSKU string    `json:"triggerSku"`
	Type       NudgeType `json:"type"`
	Tag        string    `json:"tag"` // display tag, e.g. "family-optimizer"
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`

	RecommendedSKUs []string `json:"recommendedSkus"`
	Savings         float64  `json:"savings"` // always >= 0, validated at load

	CTA  CTAText        `json:"ctaText"`
	Copy PersuasiveCopy `json:"persuasiveCopy"`
}
