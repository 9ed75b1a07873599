// Package taxonomy is the typed registry of categories and subcategories per kind.
package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Dan9191/finflow/internal/models"
)

// ErrUnknownCategory is returned when a category is not registered for a kind.
var ErrUnknownCategory = errors.New("unknown category")

// Registry maps kind -> category -> subcategories.
type Registry struct {
	kinds map[models.Kind]map[string][]string
}

// file is the TOML layout of a taxonomy override:
//
//	[expense]
//	Housing = ["Rent", "Energy"]
//	[income]
//	Salary = ["Net salary"]
type file struct {
	Income  map[string][]string `toml:"income"`
	Expense map[string][]string `toml:"expense"`
}

// Default returns the built-in taxonomy.
func Default() *Registry {
	r, err := New(map[models.Kind]map[string][]string{
		models.KindExpense: {
			"Housing":        {"Rent", "Energy", "Water", "Internet", "Maintenance", "Condo fee"},
			"Food":           {"Groceries", "Restaurant", "Delivery", "Coffee"},
			"Transport":      {"Fuel", "Ride hailing", "Vehicle maintenance", "Vehicle tax", "Public transport"},
			"Leisure":        {"Streaming", "Cinema", "Travel", "Bars", "Games"},
			"Education":      {"Tuition", "Online courses", "Books", "Languages"},
			"Technology":     {"Hardware", "Software", "Cloud", "Electronics"},
			"Health":         {"Pharmacy", "Doctor", "Gym", "Therapy", "Health plan", "Dentist"},
			"Personal":       {"Clothing", "Cosmetics", "Hairdresser", "Gifts"},
			"Financial":      {"Bank fees", "Taxes", "Debt", "Card payment"},
			"Donations":      {"Tithe", "Offering"},
			"Investments":    {"Emergency reserve", "Brokerage transfer", "Fixed income", "Stocks"},
			"Other expenses": {"Other"},
		},
		models.KindIncome: {
			"Salary":     {"Net salary", "Advance", "Bonus", "Vacation pay", "Scholarship"},
			"Side work":  {"Freelance", "Consulting", "Sales", "Cashback"},
			"Transfers":  {"Received"},
			"Yield":      {"Dividends", "Interest", "Fund distributions"},
			"Redemption": {"Fixed income redemption", "Reserve redemption", "Stock sale"},
		},
	})
	if err != nil {
		panic(err) // built-in data is static
	}
	return r
}

// New validates and builds a registry.
func New(kinds map[models.Kind]map[string][]string) (*Registry, error) {
	r := &Registry{kinds: make(map[models.Kind]map[string][]string, len(kinds))}
	for kind, categories := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("invalid kind %q", kind)
		}
		if len(categories) == 0 {
			return nil, fmt.Errorf("kind %q has no categories", kind)
		}
		cats := make(map[string][]string, len(categories))
		for name, subs := range categories {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("kind %q has an empty category name", kind)
			}
			seen := make(map[string]bool, len(subs))
			for _, s := range subs {
				if strings.TrimSpace(s) == "" {
					return nil, fmt.Errorf("category %q has an empty subcategory", name)
				}
				if seen[s] {
					return nil, fmt.Errorf("category %q lists subcategory %q twice", name, s)
				}
				seen[s] = true
			}
			cats[name] = append([]string(nil), subs...)
		}
		r.kinds[kind] = cats
	}
	for _, kind := range []models.Kind{models.KindIncome, models.KindExpense} {
		if _, ok := r.kinds[kind]; !ok {
			return nil, fmt.Errorf("kind %q is missing", kind)
		}
	}
	return r, nil
}

// Load reads a TOML taxonomy file. An empty path yields the default taxonomy.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	r, err := New(map[models.Kind]map[string][]string{
		models.KindIncome:  f.Income,
		models.KindExpense: f.Expense,
	})
	if err != nil {
		return nil, fmt.Errorf("validating taxonomy: %w", err)
	}
	return r, nil
}

// Categories lists the categories of a kind in name order.
func (r *Registry) Categories(kind models.Kind) []string {
	out := make([]string, 0, len(r.kinds[kind]))
	for name := range r.kinds[kind] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Subcategories lists the subcategories of a category.
func (r *Registry) Subcategories(kind models.Kind, category string) []string {
	return append([]string(nil), r.kinds[kind][category]...)
}

// Validate checks that category (and subcategory, when set) exist for kind.
func (r *Registry) Validate(kind models.Kind, category, subcategory string) error {
	subs, ok := r.kinds[kind][category]
	if !ok {
		return fmt.Errorf("%w: %q for %s", ErrUnknownCategory, category, kind)
	}
	if subcategory == "" {
		return nil
	}
	for _, s := range subs {
		if s == subcategory {
			return nil
		}
	}
	return fmt.Errorf("%w: subcategory %q of %q", ErrUnknownCategory, subcategory, category)
}
