// Package viewstate owns one visitor's UI state: filter, search and sort
// selections, expanded project cards and cosmetic toggles. It re-derives the
// visible project list only when an input to the pipeline changes.
//
// A Controller is not safe for concurrent use; callers serialize access.
package viewstate

import (
	"slices"

	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/projects"
)

// State is the serializable form of a Controller.
type State struct {
	Filters             projects.Filters    `json:"filters"`
	Query               string              `json:"query"`
	Sort                projects.SortOption `json:"sort"`
	Expanded            []string            `json:"expanded"`
	DarkMode            bool                `json:"darkMode"`
	MobileMenuOpen      bool                `json:"mobileMenuOpen"`
	CursorLabel         string              `json:"cursorLabel"`
	FilterPanelExpanded bool                `json:"filterPanelExpanded"`
}

func DefaultState() State {
	return State{
		Filters:             projects.DefaultFilters(),
		Sort:                projects.DefaultSort,
		Expanded:            []string{},
		DarkMode:            true,
		FilterPanelExpanded: true,
	}
}

type derivation struct {
	filters projects.Filters
	query   string
	sort    projects.SortOption
}

func (d derivation) equal(o derivation) bool {
	return d.query == o.query && d.sort == o.sort && d.filters.Equal(o.filters)
}

type Controller struct {
	records []catalog.Record

	filters  projects.Filters
	query    string
	sort     projects.SortOption
	expanded map[string]struct{}

	darkMode            bool
	mobileMenuOpen      bool
	cursorLabel         string
	filterPanelExpanded bool

	memoKey        derivation
	memoValid      bool
	visible        []catalog.Record
	recomputations int
}

// NewController returns a controller over records in the default state.
func NewController(records []catalog.Record) *Controller {
	c := &Controller{records: records}
	c.Restore(DefaultState())
	return c
}

// Restore replaces the whole state. Selections are normalized the same way
// the setters normalize them.
func (c *Controller) Restore(s State) {
	c.filters = projects.Filters{
		Type:       normalizeTypes(s.Filters.Type),
		Technology: dedupe(s.Filters.Technology),
	}
	c.query = s.Query
	c.sort = s.Sort
	if !c.sort.Valid() {
		c.sort = projects.DefaultSort
	}
	c.expanded = make(map[string]struct{}, len(s.Expanded))
	for _, id := range s.Expanded {
		c.expanded[id] = struct{}{}
	}
	c.darkMode = s.DarkMode
	c.mobileMenuOpen = s.MobileMenuOpen
	c.cursorLabel = s.CursorLabel
	c.filterPanelExpanded = s.FilterPanelExpanded
}

func (c *Controller) Snapshot() State {
	return State{
		Filters:             c.filters.Clone(),
		Query:               c.query,
		Sort:                c.sort,
		Expanded:            c.ExpandedIDs(),
		DarkMode:            c.darkMode,
		MobileMenuOpen:      c.mobileMenuOpen,
		CursorLabel:         c.cursorLabel,
		FilterPanelExpanded: c.filterPanelExpanded,
	}
}

// SetTypeFilter replaces the type selection. Specific labels displace the
// AllTypes sentinel and an empty selection becomes {AllTypes}. An explicit
// selection of AllTypes alone behaves like ToggleType(AllTypes).
func (c *Controller) SetTypeFilter(types []string) {
	if slices.Equal(dedupe(types), []string{catalog.AllTypes}) {
		c.ToggleType(catalog.AllTypes)
		return
	}
	c.filters.Type = normalizeTypes(types)
}

func (c *Controller) SetTechnologyFilter(techs []string) {
	c.filters.Technology = dedupe(techs)
}

// ToggleType applies the type control's click rules. Choosing AllTypes
// clears every specific type and every technology. Choosing a specific
// type while AllTypes is active clears AllTypes. Removing the last
// specific type reverts to AllTypes.
func (c *Controller) ToggleType(label string) {
	if label == catalog.AllTypes {
		c.filters.Type = []string{catalog.AllTypes}
		c.filters.Technology = []string{}
		return
	}

	var next []string
	if slices.Contains(c.filters.Type, label) {
		next = slices.DeleteFunc(slices.Clone(c.filters.Type), func(t string) bool { return t == label })
	} else {
		next = slices.DeleteFunc(slices.Clone(c.filters.Type), func(t string) bool { return t == catalog.AllTypes })
		next = append(next, label)
	}
	c.filters.Type = normalizeTypes(next)
}

func (c *Controller) ToggleTechnology(label string) {
	if slices.Contains(c.filters.Technology, label) {
		c.filters.Technology = slices.DeleteFunc(slices.Clone(c.filters.Technology), func(t string) bool { return t == label })
		return
	}
	c.filters.Technology = append(slices.Clone(c.filters.Technology), label)
}

func (c *Controller) SetSearchQuery(q string) {
	c.query = q
}

// SetSortOption selects the comparator. Unknown options select the default.
func (c *Controller) SetSortOption(opt projects.SortOption) {
	if !opt.Valid() {
		opt = projects.DefaultSort
	}
	c.sort = opt
}

// ClearAllFilters resets type, technology, search and sort to defaults.
// Expanded cards and cosmetic toggles are left alone.
func (c *Controller) ClearAllFilters() {
	c.filters = projects.DefaultFilters()
	c.query = ""
	c.sort = projects.DefaultSort
}

// ToggleProjectExpansion opens or closes one project's detail panel and
// reports whether it is now open. Any number of panels may be open.
func (c *Controller) ToggleProjectExpansion(id string) bool {
	if _, ok := c.expanded[id]; ok {
		delete(c.expanded, id)
		return false
	}
	c.expanded[id] = struct{}{}
	return true
}

func (c *Controller) IsExpanded(id string) bool {
	_, ok := c.expanded[id]
	return ok
}

// ExpandedIDs returns the open panels in lexical order.
func (c *Controller) ExpandedIDs() []string {
	out := make([]string, 0, len(c.expanded))
	for id := range c.expanded {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c *Controller) ToggleDarkMode() bool {
	c.darkMode = !c.darkMode
	return c.darkMode
}

func (c *Controller) ToggleMobileMenu() bool {
	c.mobileMenuOpen = !c.mobileMenuOpen
	return c.mobileMenuOpen
}

func (c *Controller) ToggleFilterPanel() bool {
	c.filterPanelExpanded = !c.filterPanelExpanded
	return c.filterPanelExpanded
}

// SetCursorLabel sets the hover caption; "" hides it.
func (c *Controller) SetCursorLabel(label string) {
	c.cursorLabel = label
}

func (c *Controller) Filters() projects.Filters    { return c.filters.Clone() }
func (c *Controller) Query() string                { return c.query }
func (c *Controller) Sort() projects.SortOption    { return c.sort }
func (c *Controller) DarkMode() bool               { return c.darkMode }
func (c *Controller) MobileMenuOpen() bool         { return c.mobileMenuOpen }
func (c *Controller) CursorLabel() string          { return c.cursorLabel }
func (c *Controller) FilterPanelExpanded() bool    { return c.filterPanelExpanded }
func (c *Controller) Recomputations() int          { return c.recomputations }
func (c *Controller) IsTypeSelected(l string) bool { return slices.Contains(c.filters.Type, l) }

func (c *Controller) IsTechnologySelected(l string) bool {
	return slices.Contains(c.filters.Technology, l)
}

// HasActiveFilters reports whether anything narrows the catalog.
func (c *Controller) HasActiveFilters() bool {
	return !slices.Contains(c.filters.Type, catalog.AllTypes) ||
		len(c.filters.Technology) > 0 ||
		c.query != ""
}

// Visible returns the derived list for the current selection.
func (c *Controller) Visible() []catalog.Record {
	key := derivation{filters: c.filters, query: c.query, sort: c.sort}
	if !c.memoValid || !c.memoKey.equal(key) {
		c.visible = projects.Derive(c.records, c.filters, c.query, c.sort)
		c.memoKey = derivation{filters: c.filters.Clone(), query: c.query, sort: c.sort}
		c.memoValid = true
		c.recomputations++
	}
	return slices.Clone(c.visible)
}

// Featured returns the priority records of the derived list, in derived order.
func (c *Controller) Featured() []catalog.Record {
	return slices.DeleteFunc(c.Visible(), func(r catalog.Record) bool { return !r.Priority })
}

func normalizeTypes(types []string) []string {
	out := dedupe(types)
	if slices.ContainsFunc(out, func(t string) bool { return t != catalog.AllTypes }) {
		out = slices.DeleteFunc(out, func(t string) bool { return t == catalog.AllTypes })
	}
	if len(out) == 0 {
		out = []string{catalog.AllTypes}
	}
	return out
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
