// Package scenario converts raw scenario YAML into typed domain models,
// validates them and assembles live timelines from them.
//
// A scenario document looks like:
//
//	name: pulse
//	description: two eased sweeps and a sine follower
//	persist: 250
//	items:
//	  - name: rise
//	    duration: 1000
//	    ease: cubic-out
//	  - name: wave
//	    kind: script
//	    duration: 2000
//	    place: now
//	    script: "Math.sin(pos * Math.PI * 2)"
//
// Durations and delays are milliseconds. persist accepts the literal
// true (keep finished runners forever) or a grace in milliseconds.
package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/me/reel/pkg/model"
)

// Parser converts raw scenario YAML into domain models.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser with the given logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "parser")}
}

// document mirrors the YAML layout. It is deliberately separate from
// model.Scenario so wire quirks stay out of the domain type.
type document struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Speed       float64      `yaml:"speed"`
	Persist     *persistNode `yaml:"persist"`
	Items       []itemNode   `yaml:"items"`
}

type itemNode struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Duration float64      `yaml:"duration"`
	Delay    float64      `yaml:"delay"`
	Place    string       `yaml:"place"`
	Ease     string       `yaml:"ease"`
	Script   string       `yaml:"script"`
	Persist  *persistNode `yaml:"persist"`
}

// persistNode accepts the YAML literal true or a number of
// milliseconds.
type persistNode struct {
	spec model.PersistSpec
}

func (p *persistNode) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		p.spec = model.PersistSpec{Forever: b}
		return nil
	}
	var g float64
	if err := value.Decode(&g); err == nil {
		p.spec = model.PersistSpec{Grace: g}
		return nil
	}
	return fmt.Errorf("line %d: persist must be true or a number of milliseconds", value.Line)
}

// Parse converts a scenario document into a model.Scenario. It reports
// only syntactic problems; semantic checks are the Validator's job.
func (p *Parser) Parse(data []byte) (*model.Scenario, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	scn := &model.Scenario{
		Name:        doc.Name,
		Description: doc.Description,
		ContentHash: contentHash(data),
		RawYAML:     string(data),
		Speed:       doc.Speed,
		Items:       make([]model.Item, 0, len(doc.Items)),
	}
	if doc.Persist != nil {
		spec := doc.Persist.spec
		scn.Persist = &spec
	}

	for _, n := range doc.Items {
		item := model.Item{
			Name:     n.Name,
			Kind:     model.ItemKind(n.Kind),
			Duration: n.Duration,
			Delay:    n.Delay,
			Place:    n.Place,
			Ease:     n.Ease,
			Script:   n.Script,
		}
		if n.Persist != nil {
			spec := n.Persist.spec
			item.Persist = &spec
		}
		scn.Items = append(scn.Items, item)
	}

	p.logger.Debug("scenario parsed", "name", scn.Name, "items", len(scn.Items))
	return scn, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
