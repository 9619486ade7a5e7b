// Package catalog holds the build-time content of the portfolio: the ordered
// project records, the page copy, and the label sets offered by the filter
// controls. The data is embedded YAML and is never mutated after Load.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllTypes is the type-filter sentinel meaning "no type restriction".
const AllTypes = "All"

var (
	ErrEmptyID      = errors.New("catalog: project id is empty")
	ErrDuplicateID  = errors.New("catalog: duplicate project id")
	ErrUnknownLabel = errors.New("catalog: label not offered by filters")
)

//go:embed data/catalog.yaml
var embedded []byte

// Record is a single project case study.
type Record struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	Client     string   `yaml:"client" json:"client"`
	Date       string   `yaml:"date" json:"date"`
	Role       string   `yaml:"role" json:"role"`
	Tag        string   `yaml:"tag" json:"tag"`
	Priority   bool     `yaml:"priority" json:"priority"`
	Stat       string   `yaml:"stat" json:"stat"`
	StatLabel  string   `yaml:"statLabel" json:"statLabel"`
	Problem    string   `yaml:"problem" json:"problem"`
	Insight    string   `yaml:"insight" json:"insight"`
	Solution   string   `yaml:"solution" json:"solution"`
	Result     string   `yaml:"result" json:"result"`
	Process    []string `yaml:"process" json:"process"`
	Type       []string `yaml:"type" json:"type"`
	Technology []string `yaml:"technology" json:"technology"`
	Image      string   `yaml:"image" json:"image"`
	LiveURL    string   `yaml:"liveUrl" json:"liveUrl"`
}

func (r Record) HasType(label string) bool {
	return slices.Contains(r.Type, label)
}

func (r Record) HasTechnology(label string) bool {
	return slices.Contains(r.Technology, label)
}

type Education struct {
	Degree      string   `yaml:"degree"`
	Institution string   `yaml:"institution"`
	StartDate   string   `yaml:"startDate"`
	EndDate     string   `yaml:"endDate"`
	Highlights  []string `yaml:"highlights"`
}

type Capability struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type Principle struct {
	Title string `yaml:"title"`
	Icon  string `yaml:"icon"`
	Text  string `yaml:"text"`
}

// Site is the non-project copy rendered around the showcase.
type Site struct {
	Name         string       `yaml:"name"`
	Headline     string       `yaml:"headline"`
	About        string       `yaml:"about"`
	Email        string       `yaml:"email"`
	GitHub       string       `yaml:"github"`
	LinkedIn     string       `yaml:"linkedin"`
	Education    []Education  `yaml:"education"`
	Capabilities []Capability `yaml:"capabilities"`
	Philosophy   []Principle  `yaml:"philosophy"`
}

// Filters lists the labels the controls offer, in display order.
type Filters struct {
	Types        []string `yaml:"types" json:"types"`
	Technologies []string `yaml:"technologies" json:"technologies"`
}

type Catalog struct {
	Site     Site     `yaml:"site"`
	Filters  Filters  `yaml:"filters"`
	Projects []Record `yaml:"projects"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range c.Projects {
		c.Projects[i].Date = strings.TrimSpace(c.Projects[i].Date)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks id uniqueness and that every record label is one the
// controls can select. An empty filter section disables the label check.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Projects))
	for i, p := range c.Projects {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("project #%d: %w", i, ErrEmptyID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}

		if len(c.Filters.Types) > 0 {
			for _, t := range p.Type {
				if t == AllTypes || !slices.Contains(c.Filters.Types, t) {
					return fmt.Errorf("project %q type %q: %w", p.ID, t, ErrUnknownLabel)
				}
			}
		}
		if len(c.Filters.Technologies) > 0 {
			for _, t := range p.Technology {
				if !slices.Contains(c.Filters.Technologies, t) {
					return fmt.Errorf("project %q technology %q: %w", p.ID, t, ErrUnknownLabel)
				}
			}
		}
	}
	return nil
}

// Records returns a copy of the project list in catalog order.
func (c *Catalog) Records() []Record {
	return slices.Clone(c.Projects)
}

func (c *Catalog) Lookup(id string) (Record, bool) {
	for _, p := range c.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Record{}, false
}

// IsTypeOption reports whether label is offered by the type control,
// including the AllTypes sentinel.
func (c *Catalog) IsTypeOption(label string) bool {
	return label == AllTypes || slices.Contains(c.Filters.Types, label)
}

func (c *Catalog) IsTechnologyOption(label string) bool {
	return slices.Contains(c.Filters.Technologies, label)
}
