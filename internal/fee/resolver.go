package fee

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfiguration marks a selection or table that does not match the declared
// schedule. It is never recovered into a default price.
var ErrConfiguration = errors.New("fee configuration error")

type ConfigurationError struct {
	Category Category
	Axis     string
	Value    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("fee: ")
	b.WriteString(e.Reason)
	if e.Category != "" {
		fmt.Fprintf(&b, " (category=%s", e.Category)
		if e.Axis != "" {
			fmt.Fprintf(&b, " axis=%s", e.Axis)
		}
		if e.Value != "" {
			fmt.Fprintf(&b, " value=%q", e.Value)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// PriceKey composes the table key for a combination of axis values.
func PriceKey(values ...string) string {
	return strings.Join(values, "/")
}

type compiledCategory struct {
	def     CategoryDef
	domains []map[string]string // per axis: value -> label
}

// Schedule is an immutable, validated set of category price tables.
type Schedule struct {
	order      []Category
	categories map[Category]*compiledCategory
}

// NewSchedule validates the definitions: every combination of axis values must
// carry exactly one price and no price may exist for an undeclared combination.
func NewSchedule(defs ...CategoryDef) (*Schedule, error) {
	s := &Schedule{categories: make(map[Category]*compiledCategory, len(defs))}
	for _, def := range defs {
		if def.Category == "" {
			return nil, &ConfigurationError{Reason: "category without id"}
		}
		if _, dup := s.categories[def.Category]; dup {
			return nil, &ConfigurationError{Category: def.Category, Reason: "duplicate category"}
		}
		compiled, err := compileCategory(def)
		if err != nil {
			return nil, err
		}
		s.categories[def.Category] = compiled
		s.order = append(s.order, def.Category)
	}
	return s, nil
}

// DefaultSchedule returns the published fee schedule. It panics if the static
// table is inconsistent, which is a programming error.
func DefaultSchedule() *Schedule {
	s, err := NewSchedule(defaultDefinitions()...)
	if err != nil {
		panic(err)
	}
	return s
}

var published = DefaultSchedule()

// Resolve looks up the published schedule.
func Resolve(category Category, selection Selection) (Result, error) {
	return published.Resolve(category, selection)
}

func compileCategory(def CategoryDef) (*compiledCategory, error) {
	if len(def.Axes) == 0 {
		return nil, &ConfigurationError{Category: def.Category, Reason: "category without axes"}
	}
	c := &compiledCategory{def: def, domains: make([]map[string]string, len(def.Axes))}
	seenAxis := map[string]bool{}
	for i, axis := range def.Axes {
		if axis.Name == "" || seenAxis[axis.Name] {
			return nil, &ConfigurationError{Category: def.Category, Axis: axis.Name, Reason: "axis name missing or repeated"}
		}
		seenAxis[axis.Name] = true
		if len(axis.Options) == 0 {
			return nil, &ConfigurationError{Category: def.Category, Axis: axis.Name, Reason: "axis without options"}
		}
		domain := make(map[string]string, len(axis.Options))
		for _, opt := range axis.Options {
			if _, dup := domain[opt.Value]; dup || opt.Value == "" {
				return nil, &ConfigurationError{Category: def.Category, Axis: axis.Name, Value: opt.Value, Reason: "option value missing or repeated"}
			}
			domain[opt.Value] = opt.Label
		}
		c.domains[i] = domain
	}

	combos := combinations(def.Axes)
	for _, combo := range combos {
		key := PriceKey(combo...)
		price, ok := def.Prices[key]
		if !ok {
			return nil, &ConfigurationError{Category: def.Category, Value: key, Reason: "combination without declared price"}
		}
		if len(price.Fees) == 0 {
			return nil, &ConfigurationError{Category: def.Category, Value: key, Reason: "price without fees"}
		}
		for _, f := range price.Fees {
			if f.Amount <= 0 {
				return nil, &ConfigurationError{Category: def.Category, Value: key, Reason: "non-positive fee"}
			}
		}
	}
	if len(def.Prices) != len(combos) {
		return nil, &ConfigurationError{Category: def.Category, Reason: "price declared for undeclared combination"}
	}
	return c, nil
}

func combinations(axes []Axis) [][]string {
	out := [][]string{nil}
	for _, axis := range axes {
		next := make([][]string, 0, len(out)*len(axis.Options))
		for _, prefix := range out {
			for _, opt := range axis.Options {
				combo := make([]string, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, opt.Value))
			}
		}
		out = next
	}
	return out
}

// Categories lists the schedule in declaration order.
func (s *Schedule) Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(s.order))
	for _, id := range s.order {
		def := s.categories[id].def
		axes := make([]Axis, len(def.Axes))
		for i, axis := range def.Axes {
			axes[i] = Axis{Name: axis.Name, Label: axis.Label, Options: append([]Option(nil), axis.Options...)}
		}
		out = append(out, CategoryInfo{Category: id, Name: def.Name, Axes: axes})
	}
	return out
}

// Resolve maps a category and a complete selection to its declared fee.
// The selection must name exactly the category's axes.
func (s *Schedule) Resolve(category Category, selection Selection) (Result, error) {
	c, ok := s.categories[category]
	if !ok {
		return Result{}, &ConfigurationError{Category: category, Reason: "unknown category"}
	}
	def := c.def

	values := make([]string, len(def.Axes))
	labels := make([]string, len(def.Axes))
	for i, axis := range def.Axes {
		v, ok := selection[axis.Name]
		if !ok {
			return Result{}, &ConfigurationError{Category: category, Axis: axis.Name, Reason: "missing axis"}
		}
		label, ok := c.domains[i][v]
		if !ok {
			return Result{}, &ConfigurationError{Category: category, Axis: axis.Name, Value: v, Reason: "value outside axis domain"}
		}
		values[i] = v
		labels[i] = label
	}
	if len(selection) != len(def.Axes) {
		return Result{}, &ConfigurationError{Category: category, Axis: unexpectedAxis(def.Axes, selection), Reason: "unexpected axis"}
	}

	key := PriceKey(values...)
	price, ok := def.Prices[key]
	if !ok {
		return Result{}, &ConfigurationError{Category: category, Value: key, Reason: "combination without declared price"}
	}

	breakdown := make([]BreakdownItem, 0, len(def.Axes)+1+len(price.Fees))
	for i, axis := range def.Axes {
		breakdown = append(breakdown, BreakdownItem{Label: axis.Label, Value: labels[i]})
	}
	if def.ShowValidity {
		breakdown = append(breakdown, BreakdownItem{Label: "Validity", Value: price.Validity})
	}
	if len(price.Fees) > 1 {
		for _, f := range price.Fees {
			breakdown = append(breakdown, BreakdownItem{Label: f.Label, Value: FormatTaka(f.Amount), Amount: f.Amount})
		}
	}

	return Result{
		Category:  category,
		Amount:    price.Total(),
		Validity:  price.Validity,
		Breakdown: breakdown,
	}, nil
}

func unexpectedAxis(axes []Axis, selection Selection) string {
	declared := make(map[string]bool, len(axes))
	for _, axis := range axes {
		declared[axis.Name] = true
	}
	var extra []string
	for name := range selection {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	if len(extra) == 0 {
		return ""
	}
	return extra[0]
}
