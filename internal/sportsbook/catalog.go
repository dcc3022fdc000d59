package sportsbook

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/attaboy/faketoto/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the read-only, ordered list of offered matches.
type Catalog struct {
	matches []domain.Match
	byID    map[string]int
}

type catalogFile struct {
	Matches []domain.Match `yaml:"matches"`
}

// LoadCatalog reads a YAML catalog from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// ParseCatalog decodes and validates YAML catalog data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Matches)
}

// NewCatalog validates matches and builds a catalog preserving their order.
func NewCatalog(matches []domain.Match) (*Catalog, error) {
	c := &Catalog{
		matches: make([]domain.Match, 0, len(matches)),
		byID:    make(map[string]int, len(matches)),
	}
	for _, m := range matches {
		if err := validateMatch(m); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, domain.ErrValidation(fmt.Sprintf("duplicate match id %q", m.ID))
		}
		c.byID[m.ID] = len(c.matches)
		c.matches = append(c.matches, m)
	}
	return c, nil
}

func validateMatch(m domain.Match) error {
	switch {
	case m.ID == "":
		return domain.ErrValidation("match id is required")
	case m.HomeTeam == "" || m.AwayTeam == "":
		return domain.ErrValidation(fmt.Sprintf("match %s: both teams are required", m.ID))
	case m.Odds.Home <= 1 || m.Odds.Away <= 1:
		return domain.ErrValidation(fmt.Sprintf("match %s: odds must be greater than 1", m.ID))
	}
	switch m.Sport {
	case domain.SportSoccer, domain.SportBaseball, domain.SportBasketball, domain.SportVolleyball:
	default:
		return domain.ErrValidation(fmt.Sprintf("match %s: unknown sport %q", m.ID, m.Sport))
	}
	if m.Odds.Draw != nil {
		if !m.Sport.AllowsDraw() {
			return domain.ErrValidation(fmt.Sprintf("match %s: %s has no draw market", m.ID, m.Sport))
		}
		if *m.Odds.Draw <= 1 {
			return domain.ErrValidation(fmt.Sprintf("match %s: draw odds must be greater than 1", m.ID))
		}
	}
	return nil
}

// All returns every match in catalog order.
func (c *Catalog) All() []domain.Match {
	return append([]domain.Match(nil), c.matches...)
}

// BySport filters the catalog. An empty sport returns everything.
func (c *Catalog) BySport(sport domain.Sport) []domain.Match {
	if sport == "" {
		return c.All()
	}
	var out []domain.Match
	for _, m := range c.matches {
		if m.Sport == sport {
			out = append(out, m)
		}
	}
	return out
}

// Get looks a match up by id.
func (c *Catalog) Get(id string) (domain.Match, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Match{}, domain.ErrNotFound("match", id)
	}
	return c.matches[i], nil
}

func (c *Catalog) Len() int { return len(c.matches) }
