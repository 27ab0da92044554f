package domain

import "context"

// CatalogLookup defines read-only product resolution. Absence is filterable,
// never fatal: callers drop unknown SKUs at the point of use.
type CatalogLookup interface {
	Get(sku string) (Product, bool)
	All() []Product
}

// ProfileSource supplies the demo profiles and their scripted scenarios as
// ordered configuration
type ProfileSource interface {
	AllProfiles() []Profile
	Profile(id string) (Profile, bool)
	Scenarios(profileID string) []Scenario
}

// NudgeEngine is the general-purpose scoring engine consulted when no
// scripted scenario matches a scan. Resolve returns ErrNoCandidate when no
// rule fires; any other error is logged and swallowed by the dispatcher.
type NudgeEngine interface {
	Resolve(ctx context.Context, session *Session, profile Profile, scan ScanEvent) (NudgeCandidate, error)
}
