// Package catalog holds the learning content: modules, roadmap steps and
// practice problems. A default catalog is embedded; others load from YAML.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/gosimple/slug"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/levelup/internal/scoring"
)

//go:embed seed.yaml
var seedYAML []byte

//go:embed schema.json
var schemaJSON []byte

// Difficulty grades a practice problem.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Module is a learning hub entry.
type Module struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	VideoURL    string        `yaml:"video_url"`
	Level       scoring.Level `yaml:"level"`
	SortOrder   int           `yaml:"-"`
}

// Link is a labelled resource attached to a roadmap step.
type Link struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// Step is a roadmap entry.
type Step struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Level       scoring.Level `yaml:"level"`
	Links       []Link        `yaml:"resource_links"`
	SortOrder   int           `yaml:"-"`
}

// Problem is a coding practice entry.
type Problem struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Difficulty  Difficulty `yaml:"difficulty"`
	Points      int        `yaml:"points"`
	URL         string     `yaml:"url"`
	SortOrder   int        `yaml:"-"`
}

// Catalog is a full set of learning content.
type Catalog struct {
	Modules  []Module  `yaml:"learning_modules"`
	Steps    []Step    `yaml:"roadmap_steps"`
	Problems []Problem `yaml:"practice_problems"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(seedYAML)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the catalog schema, then decodes it and fills
// in ids and sort orders.
func Parse(data []byte) (*Catalog, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize derives missing ids from titles and numbers entries by their
// position. Modules and steps are numbered within their level.
func (c *Catalog) normalize() error {
	seen := map[string]bool{}
	claim := func(kind, id, title string) (string, error) {
		if id == "" {
			id = slug.Make(title)
		}
		key := kind + "/" + id
		if seen[key] {
			return "", fmt.Errorf("catalog: duplicate %s id %q", kind, id)
		}
		seen[key] = true
		return id, nil
	}

	perLevel := map[scoring.Level]int{}
	for i := range c.Modules {
		m := &c.Modules[i]
		id, err := claim("module", m.ID, m.Title)
		if err != nil {
			return err
		}
		m.ID = id
		perLevel[m.Level]++
		m.SortOrder = perLevel[m.Level]
	}

	perLevel = map[scoring.Level]int{}
	for i := range c.Steps {
		s := &c.Steps[i]
		id, err := claim("step", s.ID, s.Title)
		if err != nil {
			return err
		}
		s.ID = id
		perLevel[s.Level]++
		s.SortOrder = perLevel[s.Level]
	}

	for i := range c.Problems {
		p := &c.Problems[i]
		id, err := claim("problem", p.ID, p.Title)
		if err != nil {
			return err
		}
		p.ID = id
		p.SortOrder = i + 1
	}
	return nil
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(schemaJSON, &doc); err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://catalog.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// validate checks YAML data against the catalog schema. The document is
// round-tripped through JSON so the validator sees plain JSON values.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog is not JSON-compatible: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}
