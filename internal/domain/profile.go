package domain

// Profile describes a demo shopper persona. Profiles are immutable
// configuration: they are selected, never mutated, by a profile switch.
type Profile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`

	// Persona card shown on the demo home screen
	PersonaName  string `json:"personaName"`
	PersonaEmoji string `json:"personaEmoji"`

	// Behavioral tags. Part of the profile contract and passed through to
	// the generic engine; the scripted nudge path does not branch on them.
	ValueBias      string   `json:"valueBias"`  // "value", "balanced", "premium"
	BudgetBand     string   `json:"budgetBand"` // "low", "mid", "high"
	DietTags       []string `json:"dietTags,omitempty"`
	AvoidBrands    []string `json:"avoidBrands,omitempty"`
	AllergyProfile []string `json:"allergyProfile,omitempty"`

	// Benefit statement templates shown on the checkout summary.
	// Placeholders: {savings} and {choices}.
	Benefits []string `json:"-"`
}
