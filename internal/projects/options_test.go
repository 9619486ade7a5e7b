package projects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abuelmaaref/portfolio/internal/catalog"
)

func TestParseSortOption(t *testing.T) {
	opt, err := ParseSortOption("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, opt)

	for _, c := range SortChoices() {
		opt, err := ParseSortOption(string(c.Value))
		require.NoError(t, err)
		assert.Equal(t, c.Value, opt)
		assert.Equal(t, c.Label, opt.Label())
	}

	_, err = ParseSortOption("newest")
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestFiltersHelpers(t *testing.T) {
	f := DefaultFilters()
	assert.Equal(t, []string{catalog.AllTypes}, f.Type)
	assert.Empty(t, f.SelectedTypes())

	f = Filters{Type: []string{catalog.AllTypes, "API"}, Technology: []string{"PHP"}}
	assert.Equal(t, []string{"API"}, f.SelectedTypes())

	c := f.Clone()
	assert.True(t, c.Equal(f))
	c.Technology[0] = "Go"
	assert.False(t, c.Equal(f))
	assert.Equal(t, "PHP", f.Technology[0])
}

func TestLeadingDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"Feb 2025 – Present", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{"September 2019 – May 2023", time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"Sept 2019 – May 2023", time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"Aug 2023 - Present", time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"2022-06", time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"07/2021", time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{"Present", time.Time{}},
		{"", time.Time{}},
		{" – 2020", time.Time{}},
	}
	for _, tc := range cases {
		assert.True(t, tc.want.Equal(LeadingDate(tc.in)), "%q: got %v", tc.in, LeadingDate(tc.in))
	}
}
