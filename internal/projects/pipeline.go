// Package projects derives the visible project list from the catalog and the
// current selection: type filter, technology filter, search, then sort.
package projects

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/abuelmaaref/portfolio/internal/catalog"
)

// Derive applies the type, technology and search filters in that order and
// sorts the survivors. It never mutates records and always returns a new,
// non-nil slice. An invalid sort option falls back to DefaultSort.
func Derive(records []catalog.Record, f Filters, query string, sort SortOption) []catalog.Record {
	out := make([]catalog.Record, 0, len(records))
	out = append(out, records...)

	out = filterByType(out, f.SelectedTypes())
	out = filterByTechnology(out, f.Technology)
	out = filterBySearch(out, query)
	return sortRecords(out, sort)
}

// filterByType keeps records matching at least one selected type.
func filterByType(in []catalog.Record, types []string) []catalog.Record {
	if len(types) == 0 {
		return in
	}
	return slices.DeleteFunc(in, func(r catalog.Record) bool {
		return !slices.ContainsFunc(types, r.HasType)
	})
}

// filterByTechnology keeps records carrying every selected technology.
func filterByTechnology(in []catalog.Record, techs []string) []catalog.Record {
	if len(techs) == 0 {
		return in
	}
	return slices.DeleteFunc(in, func(r catalog.Record) bool {
		for _, t := range techs {
			if !r.HasTechnology(t) {
				return true
			}
		}
		return false
	})
}

func filterBySearch(in []catalog.Record, query string) []catalog.Record {
	if query == "" {
		return in
	}
	q := strings.ToLower(query)
	return slices.DeleteFunc(in, func(r catalog.Record) bool {
		return !Matches(r, q)
	})
}

// Matches reports whether the lower-cased query occurs in the record's
// title, tag, problem or solution.
func Matches(r catalog.Record, lowerQuery string) bool {
	for _, field := range []string{r.Title, r.Tag, r.Problem, r.Solution} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

type sortKey struct {
	rec  catalog.Record
	date time.Time
}

func sortRecords(in []catalog.Record, opt SortOption) []catalog.Record {
	if !opt.Valid() {
		opt = DefaultSort
	}

	keys := make([]sortKey, len(in))
	for i, r := range in {
		keys[i] = sortKey{rec: r, date: LeadingDate(r.Date)}
	}

	switch opt {
	case SortDateDesc:
		slices.SortStableFunc(keys, byDateDesc)
	case SortDateAsc:
		slices.SortStableFunc(keys, func(a, b sortKey) int {
			return a.date.Compare(b.date)
		})
	case SortAlphaAsc, SortAlphaDesc:
		// Collators keep internal buffers and are not safe to share.
		col := collate.New(language.English)
		slices.SortStableFunc(keys, func(a, b sortKey) int {
			if c := col.CompareString(a.rec.Title, b.rec.Title); c != 0 {
				return c
			}
			return strings.Compare(a.rec.ID, b.rec.ID)
		})
		if opt == SortAlphaDesc {
			slices.Reverse(keys)
		}
	case SortPriority:
		slices.SortStableFunc(keys, func(a, b sortKey) int {
			if a.rec.Priority != b.rec.Priority {
				if a.rec.Priority {
					return -1
				}
				return 1
			}
			return byDateDesc(a, b)
		})
	}

	for i, k := range keys {
		in[i] = k.rec
	}
	return in
}

func byDateDesc(a, b sortKey) int {
	return b.date.Compare(a.date)
}
