package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// FallbackTable receives claims of payers without a rule.
const FallbackTable = "GENERIC_CLAIMS"

// PayerRule is the per-payer policy: the factor applied to claim_amount and
// the destination table.
type PayerRule struct {
	Key    string          // Normalized payer, e.g. "anthem"
	Factor decimal.Decimal // Multiplier for claim_amount
	Table  string          // Destination table, e.g. "ANTHEM_TABLE"
}

// NormalizePayer lowercases and trims a payer identifier for lookup.
func NormalizePayer(payer string) string {
	return strings.ToLower(strings.TrimSpace(payer))
}

// Registry manages payer rules.
// Thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]PayerRule
	fallback string
}

// NewRegistry creates an empty registry whose unknown payers resolve to
// fallbackTable with a factor of one.
func NewRegistry(fallbackTable string) *Registry {
	if fallbackTable == "" {
		fallbackTable = FallbackTable
	}
	return &Registry{
		rules:    make(map[string]PayerRule),
		fallback: fallbackTable,
	}
}

// DefaultRegistry returns a registry holding the built-in payer rules.
func DefaultRegistry() *Registry {
	r := NewRegistry(FallbackTable)
	r.Set(PayerRule{Key: "anthem", Factor: decimal.RequireFromString("1.05"), Table: "ANTHEM_TABLE"})
	r.Set(PayerRule{Key: "cigna", Factor: decimal.RequireFromString("0.98"), Table: "CIGNA_TABLE"})
	return r
}

// Register adds a rule. Returns an error if the payer already has one.
func (r *Registry) Register(rule PayerRule) error {
	rule, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.Key]; exists {
		return fmt.Errorf("payer %q already registered", rule.Key)
	}
	r.rules[rule.Key] = rule
	return nil
}

// Set adds or replaces a rule.
func (r *Registry) Set(rule PayerRule) error {
	rule, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Key] = rule
	return nil
}

func normalizeRule(rule PayerRule) (PayerRule, error) {
	rule.Key = NormalizePayer(rule.Key)
	rule.Table = strings.TrimSpace(rule.Table)
	if rule.Key == "" {
		return rule, fmt.Errorf("payer rule has no name")
	}
	if rule.Table == "" {
		return rule, fmt.Errorf("payer %q has no destination table", rule.Key)
	}
	return rule, nil
}

// Lookup returns the rule registered for payer (case-insensitive).
func (r *Registry) Lookup(payer string) (PayerRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[NormalizePayer(payer)]
	return rule, ok
}

// Known reports whether payer has a rule.
func (r *Registry) Known(payer string) bool {
	_, ok := r.Lookup(payer)
	return ok
}

// Resolve returns the rule for payer, or the fallback rule
// (factor 1, fallback table) for any payer without one.
func (r *Registry) Resolve(payer string) PayerRule {
	if rule, ok := r.Lookup(payer); ok {
		return rule
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PayerRule{Key: NormalizePayer(payer), Factor: decimal.NewFromInt(1), Table: r.fallback}
}

// Factor returns the claim_amount multiplier for payer.
func (r *Registry) Factor(payer string) decimal.Decimal {
	return r.Resolve(payer).Factor
}

// Destination returns the table that receives payer's claims.
func (r *Registry) Destination(payer string) string {
	return r.Resolve(payer).Table
}

// Fallback returns the table used for payers without a rule.
func (r *Registry) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetFallbackTable changes the table used for payers without a rule.
func (r *Registry) SetFallbackTable(table string) {
	table = strings.TrimSpace(table)
	if table == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = table
}

// All returns every rule sorted by payer.
func (r *Registry) All() []PayerRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PayerRule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Keys returns the sorted payer names.
func (r *Registry) Keys() []string {
	rules := r.All()
	keys := make([]string, len(rules))
	for i, rule := range rules {
		keys[i] = rule.Key
	}
	return keys
}
