package projects

import (
	"errors"
	"fmt"
	"slices"

	"github.com/abuelmaaref/portfolio/internal/catalog"
)

// SortOption selects the single comparator applied after filtering.
type SortOption string

const (
	SortDateDesc  SortOption = "date-desc"
	SortDateAsc   SortOption = "date-asc"
	SortAlphaAsc  SortOption = "alpha-asc"
	SortAlphaDesc SortOption = "alpha-desc"
	SortPriority  SortOption = "priority"

	DefaultSort = SortDateDesc
)

var ErrUnknownSort = errors.New("projects: unknown sort option")

// SortChoice pairs a sort option with its control label.
type SortChoice struct {
	Value SortOption `json:"value"`
	Label string     `json:"label"`
}

var sortChoices = []SortChoice{
	{SortDateDesc, "Newest First"},
	{SortDateAsc, "Oldest First"},
	{SortAlphaAsc, "A-Z"},
	{SortAlphaDesc, "Z-A"},
	{SortPriority, "Priority"},
}

// SortChoices returns the sort options in display order.
func SortChoices() []SortChoice {
	return slices.Clone(sortChoices)
}

// ParseSortOption maps a control value to a SortOption. The empty string
// selects DefaultSort.
func ParseSortOption(s string) (SortOption, error) {
	if s == "" {
		return DefaultSort, nil
	}
	opt := SortOption(s)
	if !opt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
	return opt, nil
}

func (o SortOption) Valid() bool {
	for _, c := range sortChoices {
		if c.Value == o {
			return true
		}
	}
	return false
}

func (o SortOption) Label() string {
	for _, c := range sortChoices {
		if c.Value == o {
			return c.Label
		}
	}
	return string(o)
}

// Filters is the type and technology selection. Type may contain
// catalog.AllTypes, which imposes no restriction.
type Filters struct {
	Type       []string `json:"type"`
	Technology []string `json:"technology"`
}

// DefaultFilters is the cleared selection: all types, no technologies.
func DefaultFilters() Filters {
	return Filters{Type: []string{catalog.AllTypes}, Technology: []string{}}
}

// SelectedTypes returns Type without the AllTypes sentinel.
func (f Filters) SelectedTypes() []string {
	out := make([]string, 0, len(f.Type))
	for _, t := range f.Type {
		if t != catalog.AllTypes {
			out = append(out, t)
		}
	}
	return out
}

func (f Filters) Clone() Filters {
	return Filters{Type: slices.Clone(f.Type), Technology: slices.Clone(f.Technology)}
}

func (f Filters) Equal(o Filters) bool {
	return slices.Equal(f.Type, o.Type) && slices.Equal(f.Technology, o.Technology)
}
