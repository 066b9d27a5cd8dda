// Package classify assigns categories to transactions using an ordered
// keyword rulebook. The rulebook is data, not code: it is loaded from YAML
// so misclassifications are fixed by editing the table.
package classify

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

var (
	ErrEmptyRulebook = errors.New("rulebook has no rules")
	ErrInvalidRule   = errors.New("invalid rule")
)

// Rule maps a list of keywords to one category name. Rule order in the
// book is load-bearing: earlier rules win on keyword collisions.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type Rulebook struct {
	rules []Rule
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a YAML rulebook.
func Load(r io.Reader) (*Rulebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	rb := &Rulebook{rules: f.Rules}
	if err := rb.validate(); err != nil {
		return nil, err
	}
	return rb, nil
}

// LoadFile reads a YAML rulebook from disk.
func LoadFile(path string) (*Rulebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rulebook: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded German rulebook.
func Default() *Rulebook {
	rb, err := Load(strings.NewReader(string(defaultRulesYAML)))
	if err != nil {
		panic(fmt.Sprintf("embedded rulebook is invalid: %v", err))
	}
	return rb
}

func (rb *Rulebook) validate() error {
	if len(rb.rules) == 0 {
		return ErrEmptyRulebook
	}
	for i, r := range rb.rules {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("%w: rule %d has no category", ErrInvalidRule, i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRule, r.Category)
		}
	}
	return nil
}

// Rules returns a copy of the ordered rule table.
func (rb *Rulebook) Rules() []Rule {
	return append([]Rule(nil), rb.rules...)
}

// Guess returns the category name of the first rule with any keyword
// contained in "description recipient", lowercased. The amount is reserved
// for future extension and must not influence the result.
func (rb *Rulebook) Guess(description, recipient string, amount decimal.Decimal) (string, bool) {
	searchText := strings.ToLower(description + " " + recipient)
	for _, rule := range rb.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(searchText, strings.ToLower(kw)) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
