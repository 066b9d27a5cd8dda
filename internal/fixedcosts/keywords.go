package fixedcosts

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

var (
	ErrNoRecurringKeywords = errors.New("no recurring keywords")
	ErrNotSubset           = errors.New("cancellable keywords must be a subset of recurring keywords")
)

// Keywords holds the two corpora the detector matches against payee keys.
// Both are small enough for linear substring scans.
type Keywords struct {
	Recurring   []string `yaml:"recurring"`
	Cancellable []string `yaml:"cancellable"`
}

// LoadKeywords reads a YAML keyword file.
func LoadKeywords(r io.Reader) (Keywords, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords: %w", err)
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords: %w", err)
	}
	if err := kw.Validate(); err != nil {
		return Keywords{}, err
	}
	return kw, nil
}

// LoadKeywordsFile reads a YAML keyword file from disk.
func LoadKeywordsFile(path string) (Keywords, error) {
	f, err := os.Open(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("open keywords: %w", err)
	}
	defer f.Close()
	return LoadKeywords(f)
}

// DefaultKeywords returns the embedded corpora.
func DefaultKeywords() Keywords {
	kw, err := LoadKeywords(strings.NewReader(string(defaultKeywordsYAML)))
	if err != nil {
		panic(fmt.Sprintf("embedded keywords are invalid: %v", err))
	}
	return kw
}

func (k Keywords) Validate() error {
	if len(k.Recurring) == 0 {
		return ErrNoRecurringKeywords
	}
	recurring := make(map[string]struct{}, len(k.Recurring))
	for _, kw := range k.Recurring {
		recurring[strings.ToLower(kw)] = struct{}{}
	}
	for _, kw := range k.Cancellable {
		if _, ok := recurring[strings.ToLower(kw)]; !ok {
			return fmt.Errorf("%w: %q", ErrNotSubset, kw)
		}
	}
	return nil
}

func matchesAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
