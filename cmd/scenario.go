// Package cmd provides CLI commands for the causalgen application.
// This file loads and resolves YAML scenario declarations.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/structural"
	"github.com/adalundhe/causalgen/core/varsim"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Constants
// =============================================================================

// Scenario kinds accepted in the kind field.
const (
	KindStructural = "structural"
	KindDiscrete   = "discrete"
	KindStrength   = "strength"
	KindVar        = "var"
)

// Transform names accepted in structural link declarations.
const (
	FuncLinear = "linear"
	FuncAbs    = "abs"
	FuncSine   = "sine"
	FuncRidge  = "ridge"
)

// =============================================================================
// Errors
// =============================================================================

var (
	errUnknownKind      = errors.New("unknown scenario kind")
	errUnknownTransform = errors.New("unknown transform name")
	errUnknownIntervene = errors.New("unknown intervention mode")
	errDuplicateNode    = errors.New("duplicate node id")
	errMisplacedField   = errors.New("field not valid for this scenario kind")
)

// =============================================================================
// Scenario Schema
// =============================================================================

// scenarioFile is the YAML shape of a scenario declaration.
type scenarioFile struct {
	Kind      string         `yaml:"kind"`
	Steps     int            `yaml:"steps"`
	Seed      uint64         `yaml:"seed"`
	Alphabet  int            `yaml:"alphabet"`
	NoiseMode string         `yaml:"noise_mode"`
	Nodes     []scenarioNode `yaml:"nodes"`
}

type scenarioNode struct {
	ID         int                `yaml:"id"`
	Categories int                `yaml:"categories"`
	Links      []scenarioLink     `yaml:"links"`
	Intervene  *scenarioIntervene `yaml:"intervene"`
}

type scenarioLink struct {
	Parent int     `yaml:"parent"`
	Lag    int     `yaml:"lag"`
	Coeff  float64 `yaml:"coeff"`
	Eta    float64 `yaml:"eta"`
	Func   string  `yaml:"func"`
}

type scenarioIntervene struct {
	Mode  string  `yaml:"mode"`
	Value float64 `yaml:"value"`
}

// scenario is a loaded declaration with links, categories, and interventions
// resolved into library types.
type scenario struct {
	kind          string
	steps         int
	seed          uint64
	alphabet      int
	noiseMode     varsim.Mode
	links         causal.Links
	categories    map[int]int
	interventions map[int]structural.Intervention
}

// =============================================================================
// Loading
// =============================================================================

// loadScenario reads, parses, and resolves a scenario file. The returned
// scenario has already passed link validation for its kind.
func loadScenario(path string) (*scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return file.build()
}

func (f *scenarioFile) build() (*scenario, error) {
	sc := &scenario{
		kind:          f.Kind,
		steps:         f.Steps,
		seed:          f.Seed,
		alphabet:      f.Alphabet,
		links:         causal.Links{},
		categories:    map[int]int{},
		interventions: map[int]structural.Intervention{},
	}

	switch f.Kind {
	case KindStructural, KindDiscrete, KindStrength, KindVar:
	default:
		return nil, fmt.Errorf("%q: %w", f.Kind, errUnknownKind)
	}

	if f.Kind != KindStrength && f.Alphabet != 0 {
		return nil, fmt.Errorf("alphabet on a %s scenario: %w", f.Kind, errMisplacedField)
	}
	if f.Kind != KindVar && f.NoiseMode != "" {
		return nil, fmt.Errorf("noise_mode on a %s scenario: %w", f.Kind, errMisplacedField)
	}

	if f.Kind == KindVar {
		mode := varsim.ModeCovariance
		if f.NoiseMode != "" {
			parsed, err := varsim.ParseMode(f.NoiseMode)
			if err != nil {
				return nil, err
			}
			mode = parsed
		}
		sc.noiseMode = mode
	}

	for _, node := range f.Nodes {
		if _, dup := sc.links[node.ID]; dup {
			return nil, fmt.Errorf("node %d: %w", node.ID, errDuplicateNode)
		}
		sc.links[node.ID] = []causal.Link{}

		for _, link := range node.Links {
			built, err := buildLink(f.Kind, link)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", node.ID, err)
			}
			sc.links[node.ID] = append(sc.links[node.ID], built)
		}

		if err := sc.applyNodeFields(f, node); err != nil {
			return nil, err
		}
	}

	return sc, sc.validate()
}

// buildLink resolves one YAML link into the library link type for the
// scenario kind, rejecting fields that kind has no use for.
func buildLink(kind string, link scenarioLink) (causal.Link, error) {
	switch kind {
	case KindStructural:
		if link.Eta != 0 {
			return causal.Link{}, fmt.Errorf("eta on a structural link: %w", errMisplacedField)
		}
		fn, err := transformByName(link.Func)
		if err != nil {
			return causal.Link{}, err
		}
		return causal.Structural(link.Parent, link.Lag, link.Coeff, fn), nil
	case KindVar:
		if link.Eta != 0 {
			return causal.Link{}, fmt.Errorf("eta on a var link: %w", errMisplacedField)
		}
		if link.Func != "" {
			return causal.Link{}, fmt.Errorf("func on a var link: %w", errMisplacedField)
		}
		return causal.Structural(link.Parent, link.Lag, link.Coeff, nil), nil
	case KindStrength:
		if link.Coeff != 0 {
			return causal.Link{}, fmt.Errorf("coeff on a strength link: %w", errMisplacedField)
		}
		if link.Func != "" {
			return causal.Link{}, fmt.Errorf("func on a strength link: %w", errMisplacedField)
		}
		return causal.Strength(link.Parent, link.Lag, link.Eta), nil
	default:
		if link.Coeff != 0 || link.Eta != 0 || link.Func != "" {
			return causal.Link{}, fmt.Errorf("discrete links carry only parent and lag: %w", errMisplacedField)
		}
		return causal.GraphOnly(link.Parent, link.Lag), nil
	}
}

// applyNodeFields resolves the per-node category count and intervention.
func (sc *scenario) applyNodeFields(f *scenarioFile, node scenarioNode) error {
	switch f.Kind {
	case KindDiscrete:
		sc.categories[node.ID] = node.Categories
	case KindStrength:
		categories := node.Categories
		if categories == 0 {
			categories = f.Alphabet
		}
		sc.categories[node.ID] = categories
	default:
		if node.Categories != 0 {
			return fmt.Errorf("node %d: categories on a %s scenario: %w",
				node.ID, f.Kind, errMisplacedField)
		}
	}

	if node.Intervene == nil {
		return nil
	}
	if f.Kind != KindStructural {
		return fmt.Errorf("node %d: intervene on a %s scenario: %w",
			node.ID, f.Kind, errMisplacedField)
	}
	mode, err := parseInterventionMode(node.Intervene.Mode)
	if err != nil {
		return fmt.Errorf("node %d: %w", node.ID, err)
	}
	sc.interventions[node.ID] = structural.Constant(mode, node.Intervene.Value, f.Steps)
	return nil
}

func (sc *scenario) validate() error {
	switch sc.kind {
	case KindStructural, KindVar:
		return sc.links.Validate(causal.KindStructural)
	case KindStrength:
		return sc.links.Validate(causal.KindStrength)
	default:
		return sc.links.Validate(causal.KindGraphOnly)
	}
}

// =============================================================================
// Name Resolution
// =============================================================================

// transformByName resolves a structural transform from its scenario name.
// An empty name resolves to linear.
func transformByName(name string) (causal.Func, error) {
	switch name {
	case "", FuncLinear:
		return causal.Linear, nil
	case FuncAbs:
		return causal.Abs, nil
	case FuncSine:
		return causal.Sine, nil
	case FuncRidge:
		return causal.Ridge, nil
	}
	return nil, fmt.Errorf("%q, want one of linear, abs, sine, ridge: %w", name, errUnknownTransform)
}

func parseInterventionMode(name string) (structural.Mode, error) {
	switch name {
	case "hard":
		return structural.ModeHard, nil
	case "soft":
		return structural.ModeSoft, nil
	}
	return 0, fmt.Errorf("%q, want hard or soft: %w", name, errUnknownIntervene)
}
