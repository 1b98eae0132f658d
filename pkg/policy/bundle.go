package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abacsys/decision-service/pkg/model"
)

// Bundle is a named, versioned collection of policies that can be
// imported or exported as a single JSON document, enabling catalogue
// changes without hand-editing individual rows.
type Bundle struct {
	Version   string         `json:"version"`
	Name      string         `json:"name"`
	Policies  []BundlePolicy `json:"policies"`
	CreatedAt time.Time      `json:"created_at"`
}

// BundlePolicy is the wire shape of a Policy inside a Bundle: action
// codes and conditions inline rather than joined through id columns.
type BundlePolicy struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Effect      model.Effect        `json:"effect"`
	Priority    int                 `json:"priority"`
	IsActive    bool                `json:"is_active"`
	Actions     []string            `json:"actions"`
	Conditions  []BundleCondition   `json:"conditions"`
}

// BundleCondition is the wire shape of a Condition.
type BundleCondition struct {
	Category      model.AttributeCategory `json:"category"`
	Key           string                  `json:"key"`
	Operator      model.Operator          `json:"operator"`
	ExpectedValue string                  `json:"expected_value"`
}

// Loader loads policy bundles from a directory of JSON files and keeps
// the most recently loaded copy of each in memory, guarded by a
// RWMutex so concurrent readers never block on a reload.
type Loader struct {
	mu        sync.RWMutex
	bundles   map[string]*Bundle
	bundleDir string
}

// NewLoader creates a bundle loader watching dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		bundles:   make(map[string]*Bundle),
		bundleDir: dir,
	}
}

// LoadAll loads every *.json bundle file in the configured directory.
func (l *Loader) LoadAll() error {
	entries, err := os.ReadDir(l.bundleDir)
	if err != nil {
		return fmt.Errorf("policy: read bundle dir %s: %w", l.bundleDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(l.bundleDir, entry.Name())
		if err := l.LoadFile(path); err != nil {
			return fmt.Errorf("policy: load %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// LoadFile parses and registers a single bundle file.
func (l *Loader) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("parse bundle: %w", err)
	}
	if b.Name == "" {
		b.Name = filepath.Base(path)
	}
	if err := Validate(&b); err != nil {
		return fmt.Errorf("validate bundle: %w", err)
	}

	l.mu.Lock()
	l.bundles[b.Name] = &b
	l.mu.Unlock()
	return nil
}

// GetBundle returns a loaded bundle by name.
func (l *Loader) GetBundle(name string) (*Bundle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.bundles[name]
	return b, ok
}

// AllBundles returns every loaded bundle.
func (l *Loader) AllBundles() []*Bundle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Bundle, 0, len(l.bundles))
	for _, b := range l.bundles {
		out = append(out, b)
	}
	return out
}

// Export renders the given policies as a Bundle document.
func Export(name string, policies []Policy) *Bundle {
	bp := make([]BundlePolicy, 0, len(policies))
	for _, p := range policies {
		conds := make([]BundleCondition, 0, len(p.Conditions))
		for _, c := range p.Conditions {
			conds = append(conds, BundleCondition{
				Category:      c.Category,
				Key:           c.Key,
				Operator:      c.Operator,
				ExpectedValue: c.ExpectedValue,
			})
		}
		bp = append(bp, BundlePolicy{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
			Effect:      p.Effect,
			Priority:    p.Priority,
			IsActive:    p.IsActive,
			Actions:     p.ActionCodes,
			Conditions:  conds,
		})
	}
	return &Bundle{
		Version:  "1",
		Name:     name,
		Policies: bp,
	}
}

// ToPolicies converts a bundle's policies into storage-ready Policy
// values, assigning a fresh ID to any entry that didn't carry one.
func (b *Bundle) ToPolicies() ([]Policy, error) {
	out := make([]Policy, 0, len(b.Policies))
	for _, bp := range b.Policies {
		id := uuid.New()
		if bp.ID != "" {
			parsed, err := uuid.Parse(bp.ID)
			if err != nil {
				return nil, fmt.Errorf("policy: bundle policy %q has invalid id: %w", bp.Name, err)
			}
			id = parsed
		}
		conds := make([]Condition, 0, len(bp.Conditions))
		for i, c := range bp.Conditions {
			conds = append(conds, Condition{
				ID:            uuid.New(),
				PolicyID:      id,
				Category:      c.Category,
				Key:           c.Key,
				Operator:      c.Operator,
				ExpectedValue: c.ExpectedValue,
				Order:         i,
			})
		}
		out = append(out, Policy{
			ID:          id,
			Name:        bp.Name,
			Description: bp.Description,
			Effect:      bp.Effect,
			Priority:    bp.Priority,
			IsActive:    bp.IsActive,
			Conditions:  conds,
			ActionCodes: bp.Actions,
		})
	}
	return out, nil
}
