// Package profiles supplies the demo shopper personas and their scripted
// nudge scenarios. Like the catalog, the data is immutable configuration
// loaded once from YAML.
package profiles

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pnsenthil/smartshop/internal/domain"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// Source implements domain.ProfileSource over loaded configuration
type Source struct {
	order     []string
	byID      map[string]domain.Profile
	scenarios map[string][]domain.Scenario
}

type profilesFile struct {
	Profiles []profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	ID             string         `yaml:"id"`
	DisplayName    string         `yaml:"displayName"`
	Description    string         `yaml:"description"`
	Traits         []string       `yaml:"traits"`
	PersonaName    string         `yaml:"personaName"`
	PersonaEmoji   string         `yaml:"personaEmoji"`
	ValueBias      string         `yaml:"valueBias"`
	BudgetBand     string         `yaml:"budgetBand"`
	DietTags       []string       `yaml:"dietTags"`
	AvoidBrands    []string       `yaml:"avoidBrands"`
	AllergyProfile []string       `yaml:"allergyProfile"`
	Benefits       []string       `yaml:"benefits"`
	Scenarios      []scenarioYAML `yaml:"scenarios"`
}

type scenarioYAML struct {
	TriggerSKU      string   `yaml:"triggerSku"`
	Type            string   `yaml:"type"`
	Tag             string   `yaml:"tag"`
	Title           string   `yaml:"title"`
	Reason          string   `yaml:"reason"`
	RecommendedSKUs []string `yaml:"recommendedSkus"`
	Savings         float64  `yaml:"savings"`
	CTAPrimary      string   `yaml:"ctaPrimary"`
	CTASecondary    string   `yaml:"ctaSecondary"`
	Headline        string   `yaml:"headline"`
	Subtext         string   `yaml:"subtext"`
	Urgency         string   `yaml:"urgency"`
}

// NewDefault builds a Source from the embedded profile data
func NewDefault() (*Source, error) {
	return parse(defaultProfilesYAML)
}

// NewFromFile builds a Source from a YAML file on disk
func NewFromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Source, error) {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles configured")
	}

	src := &Source{
		byID:      make(map[string]domain.Profile, len(file.Profiles)),
		scenarios: make(map[string][]domain.Scenario, len(file.Profiles)),
	}
	for _, entry := range file.Profiles {
		if entry.ID == "" {
			return nil, fmt.Errorf("profile %q has no id", entry.DisplayName)
		}
		if _, dup := src.byID[entry.ID]; dup {
			return nil, fmt.Errorf("profile %q is duplicated", entry.ID)
		}

		scenarios := make([]domain.Scenario, 0, len(entry.Scenarios))
		for i, sc := range entry.Scenarios {
			built, err := buildScenario(sc)
			if err != nil {
				return nil, fmt.Errorf("profile %q scenario %d: %w", entry.ID, i, err)
			}
			scenarios = append(scenarios, built)
		}

		src.byID[entry.ID] = domain.Profile{
			ID:             entry.ID,
			DisplayName:    entry.DisplayName,
			Description:    entry.Description,
			Traits:         entry.Traits,
			PersonaName:    entry.PersonaName,
			PersonaEmoji:   entry.PersonaEmoji,
			ValueBias:      entry.ValueBias,
			BudgetBand:     entry.BudgetBand,
			DietTags:       entry.DietTags,
			AvoidBrands:    entry.AvoidBrands,
			AllergyProfile: entry.AllergyProfile,
			Benefits:       entry.Benefits,
		}
		src.scenarios[entry.ID] = scenarios
		src.order = append(src.order, entry.ID)
	}
	return src, nil
}

func buildScenario(sc scenarioYAML) (domain.Scenario, error) {
	if sc.TriggerSKU == "" {
		return domain.Scenario{}, fmt.Errorf("missing triggerSku")
	}
	nudgeType, err := domain.ParseNudgeType(sc.Type)
	if err != nil {
		return domain.Scenario{}, err
	}
	if sc.Savings < 0 {
		return domain.Scenario{}, fmt.Errorf("negative savings %.2f", sc.Savings)
	}

	return domain.Scenario{
		TriggerSKU:      sc.TriggerSKU,
		Type:            nudgeType,
		Tag:             sc.Tag,
		Title:           sc.Title,
		Reason:          sc.Reason,
		RecommendedSKUs: sc.RecommendedSKUs,
		Savings:         sc.Savings,
		CTA:             domain.CTAText{Primary: sc.CTAPrimary, Secondary: sc.CTASecondary},
		Copy:            domain.PersuasiveCopy{Headline: sc.Headline, Subtext: sc.Subtext, Urgency: sc.Urgency},
	}, nil
}

// AllProfiles returns every profile in configured order
func (s *Source) AllProfiles() []domain.Profile {
	all := make([]domain.Profile, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.byID[id])
	}
	return all
}

// Profile resolves a profile by ID
func (s *Source) Profile(id string) (domain.Profile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Scenarios returns a profile's scripted scenarios in configured order.
// Unknown profiles yield an empty list.
func (s *Source) Scenarios(profileID string) []domain.Scenario {
	return s.scenarios[profileID]
}
