// Package engine implements the general-purpose nudge scoring engine consulted
// when no scripted scenario matches a scan. Rules are configuration: each rule
// carries an expr condition compiled at load and evaluated against the scan
// context (scanned SKU, basket contents, profile tags).
package engine

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pnsenthil/smartshop/internal/domain"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// scanEnv is the typed environment rule conditions evaluate against
type scanEnv struct {
	SKU        string   `expr:"sku"`
	Basket     []string `expr:"basket"`
	BasketSize int      `expr:"basketSize"`
	ScanCount  int      `expr:"scanCount"`
	ValueBias  string   `expr:"valueBias"`
	BudgetBand string   `expr:"budgetBand"`
}

// rule is one compiled engine rule. Rules are evaluated in file order; the
// first rule whose condition holds produces the candidate.
type rule struct {
	ID      string
	Tag     string
	Title   string
	Reason  string
	SKUs    []string
	Savings float64
	Score   float64
	program *vm.Program
}

type rulesFile struct {
	Rules []struct {
		ID       string   `yaml:"id"`
		When     string   `yaml:"when"`
		Tag      string   `yaml:"tag"`
		Title    string   `yaml:"title"`
		Reason   string   `yaml:"reason"`
		Products []string `yaml:"products"`
		Savings  float64  `yaml:"savings"`
		Score    float64  `yaml:"score"`
	} `yaml:"rules"`
}

// Config holds engine construction options
type Config struct {
	RulesPath string // empty = embedded default rules
}

// Engine is a rule-based domain.NudgeEngine. It is stateless per scan and
// safe for concurrent use once constructed.
type Engine struct {
	catalog domain.CatalogLookup
	rules   []rule
	logger  *zap.Logger
}

// New builds an engine from configured rules
func New(catalog domain.CatalogLookup, cfg Config, logger *zap.Logger) (*Engine, error) {
	data := defaultRulesYAML
	if cfg.RulesPath != "" {
		fileData, err := os.ReadFile(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("reading engine rules: %w", err)
		}
		data = fileData
	}

	rules, err := compileRules(data)
	if err != nil {
		return nil, err
	}

	return &Engine{catalog: catalog, rules: rules, logger: logger}, nil
}

func compileRules(data []byte) ([]rule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing engine rules: %w", err)
	}

	rules := make([]rule, 0, len(file.Rules))
	for _, r := range file.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("engine rule with no id")
		}
		if r.Savings < 0 {
			return nil, fmt.Errorf("rule %q: negative savings", r.ID)
		}
		if r.Score < 0 || r.Score > 1 {
			return nil, fmt.Errorf("rule %q: score %.2f outside [0,1]", r.ID, r.Score)
		}
		program, err := expr.Compile(r.When, expr.Env(scanEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %q: compiling condition: %w", r.ID, err)
		}
		rules = append(rules, rule{
			ID:      r.ID,
			Tag:     r.Tag,
			Title:   r.Title,
			Reason:  r.Reason,
			SKUs:    r.Products,
			Savings: r.Savings,
			Score:   r.Score,
			program: program,
		})
	}
	return rules, nil
}

// RuleCount reports how many rules are loaded
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// Resolve evaluates the rules against a scan and returns the first matching
// candidate. It returns domain.ErrNoCandidate when no rule fires, which the
// dispatcher treats as a valid terminal outcome.
func (e *Engine) Resolve(ctx context.Context, session *domain.Session, profile domain.Profile, scan domain.ScanEvent) (domain.NudgeCandidate, error) {
	if err := ctx.Err(); err != nil {
		return domain.NudgeCandidate{}, err
	}

	env := scanEnv{
		SKU:        scan.SKU,
		Basket:     basketSKUs(session),
		BasketSize: len(session.Basket),
		ScanCount:  len(session.Scans),
		ValueBias:  profile.ValueBias,
		BudgetBand: profile.BudgetBand,
	}

	for i := range e.rules {
		r := &e.rules[i]
		out, err := expr.Run(r.program, env)
		if err != nil {
			e.logger.Warn("engine rule evaluation failed",
				zap.String("rule", r.ID), zap.Error(err))
			continue
		}
		if matched, ok := out.(bool); !ok || !matched {
			continue
		}

		products := e.resolveProducts(r.SKUs)
		if len(products) == 0 {
			e.logger.Warn("engine rule matched but no products resolved",
				zap.String("rule", r.ID))
			continue
		}

		return domain.NudgeCandidate{
			ID:       fmt.Sprintf("engine-%s-%s", r.ID, uuid.NewString()),
			Type:     domain.TypeGeneric,
			Tag:      r.Tag,
			Title:    r.Title,
			Reason:   r.Reason,
			Products: products,
			Savings:  r.Savings,
			Score:    r.Score,
		}, nil
	}

	return domain.NudgeCandidate{}, domain.ErrNoCandidate
}

// resolveProducts maps rule SKUs through the catalog, dropping unknown ones
func (e *Engine) resolveProducts(skus []string) []domain.Product {
	products := make([]domain.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := e.catalog.Get(sku); ok {
			products = append(products, p)
		}
	}
	return products
}

func basketSKUs(session *domain.Session) []string {
	skus := make([]string, 0, len(session.Basket))
	for _, item := range session.Basket {
		skus = append(skus, item.SKU)
	}
	return skus
}
