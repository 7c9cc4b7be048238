package matching

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const roleCatalogEnv = "AGENT_ROLE_CATALOG_YAML"

//go:embed catalog.yaml
var catalogFS embed.FS

// GeneralistRole is returned when no catalog role clears the confidence floor.
const GeneralistRole = "Creative Generalist Agent"

// Role is one agent persona a creator can be matched to. MinSkill is on the 0-100 scale.
type Role struct {
	Name                string        `yaml:"name"`
	Description         string        `yaml:"description"`
	Interests           []string      `yaml:"interests"`
	Mediums             []string      `yaml:"mediums"`
	MinSkill            float64       `yaml:"min_skill"`
	CollaborationStyles []string      `yaml:"collaboration_styles"`
	TrainingPath        string        `yaml:"training_path"`
	GrowthAreas         []string      `yaml:"growth_areas"`
	Economics           RoleEconomics `yaml:"economics"`
}

type RoleEconomics struct {
	RevenueModel       string  `yaml:"revenue_model"`
	BaseMonthlyRevenue float64 `yaml:"base_monthly_revenue"`
	MarketDemand       float64 `yaml:"market_demand"`
	Competition        string  `yaml:"competition"`
}

// RoleCatalog supplies the candidate roles. Errors surface to callers as service-unavailable.
type RoleCatalog interface {
	Roles(ctx context.Context) ([]Role, error)
}

type yamlCatalog struct {
	Catalog string `yaml:"catalog"`
	Version int    `yaml:"version"`
	Roles   []Role `yaml:"roles"`
}

// YAMLCatalog loads roles once, from a file path or the embedded default.
type YAMLCatalog struct {
	path  string
	once  sync.Once
	roles []Role
	err   error
}

func NewYAMLCatalog(path string) *YAMLCatalog {
	return &YAMLCatalog{path: strings.TrimSpace(path)}
}

func CatalogFromEnv() *YAMLCatalog {
	return NewYAMLCatalog(os.Getenv(roleCatalogEnv))
}

func (c *YAMLCatalog) Roles(ctx context.Context) ([]Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.once.Do(func() {
		c.roles, c.err = c.load()
	})
	if c.err != nil {
		return nil, c.err
	}
	out := make([]Role, len(c.roles))
	copy(out, c.roles)
	return out, nil
}

func (c *YAMLCatalog) load() ([]Role, error) {
	var (
		raw []byte
		err error
	)
	if c.path != "" {
		raw, err = os.ReadFile(c.path)
	} else {
		raw, err = catalogFS.ReadFile("catalog.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a role catalog document.
func ParseCatalog(raw []byte) ([]Role, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("role catalog has no roles")
	}
	seen := make(map[string]bool, len(doc.Roles))
	for i := range doc.Roles {
		r := &doc.Roles[i]
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("role catalog: role %d has no name", i)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return nil, fmt.Errorf("role catalog: duplicate role %q", r.Name)
		}
		seen[key] = true
		r.MinSkill = clamp(r.MinSkill, 0, 100)
		r.Economics.MarketDemand = clamp(r.Economics.MarketDemand, 0, 1)
		r.Interests = normalizeTokens(r.Interests)
		r.Mediums = normalizeTokens(r.Mediums)
		r.CollaborationStyles = normalizeTokens(r.CollaborationStyles)
	}
	return doc.Roles, nil
}

// StaticCatalog serves a fixed role list; used by tests and the CLI.
type StaticCatalog []Role

func (s StaticCatalog) Roles(ctx context.Context) ([]Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Role(nil), s...), nil
}
