package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Kind selects the shape generator for a template.
type Kind string

const (
	KindLine    Kind = "line"
	KindSquare  Kind = "square"
	KindCircle  Kind = "circle"
	KindDots    Kind = "dots"
	KindEllipse Kind = "ellipse"
)

// Mode selects how the sequencer advances through an instance.
type Mode string

const (
	// ModeSequential traces shapes one after another.
	ModeSequential Mode = "sequential"
	// ModeSides treats the shapes as the four sides of one figure.
	ModeSides Mode = "sides"
)

// DefaultTransitionLabel is shown before an instance without its own label.
const DefaultTransitionLabel = "Trace!"

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Template is the immutable definition of a minigame.
type Template struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Kind            Kind    `yaml:"kind"`
	Mode            Mode    `yaml:"mode"`
	Threshold       float64 `yaml:"threshold"`
	Reward          int     `yaml:"reward"`
	Count           Range   `yaml:"count"`
	TransitionLabel string  `yaml:"transition_label"`
	Extra           bool    `yaml:"extra"`
}

type document struct {
	Minigames []Template `yaml:"minigames"`
}

var ErrUnknownMinigame = errors.New("unknown minigame")

// ParseTemplates decodes and validates a catalog document. Defaults are
// filled in for mode, count and transition label.
func ParseTemplates(data []byte) ([]Template, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range doc.Minigames {
		applyDefaults(&doc.Minigames[i])
	}
	if err := validate(doc.Minigames); err != nil {
		return nil, err
	}
	return doc.Minigames, nil
}

// LoadTemplates reads a catalog file, or the embedded catalog when path is empty.
func LoadTemplates(path string) ([]Template, error) {
	if path == "" {
		return ParseTemplates(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseTemplates(data)
}

func applyDefaults(t *Template) {
	if t.Mode == "" {
		t.Mode = ModeSequential
	}
	if t.Mode == ModeSides {
		t.Count = Range{Min: SquareSides, Max: SquareSides}
	}
	if t.Count.Min == 0 && t.Count.Max == 0 {
		t.Count = Range{Min: 1, Max: 5}
	}
	if t.TransitionLabel == "" {
		t.TransitionLabel = DefaultTransitionLabel
	}
}

func validate(templates []Template) error {
	var errs []string
	if len(templates) == 0 {
		errs = append(errs, "catalog has no minigames")
	}
	seen := make(map[string]bool, len(templates))
	for i, t := range templates {
		where := fmt.Sprintf("minigames[%d]", i)
		if t.ID == "" {
			errs = append(errs, where+".id is required")
		} else if seen[t.ID] {
			errs = append(errs, where+".id "+t.ID+" is duplicated")
		}
		seen[t.ID] = true
		if t.Name == "" {
			errs = append(errs, where+".name is required")
		}
		switch t.Kind {
		case KindLine, KindCircle, KindDots, KindEllipse:
			if t.Mode == ModeSides {
				errs = append(errs, where+".mode sides requires kind square")
			}
		case KindSquare:
		default:
			errs = append(errs, where+".kind must be one of: line, square, circle, dots, ellipse")
		}
		if t.Mode != ModeSequential && t.Mode != ModeSides {
			errs = append(errs, where+".mode must be sequential or sides")
		}
		if t.Threshold <= 0 {
			errs = append(errs, where+".threshold must be > 0")
		}
		if t.Reward < 0 {
			errs = append(errs, where+".reward must be >= 0")
		}
		if t.Count.Min < 1 || t.Count.Max < t.Count.Min {
			errs = append(errs, where+".count must satisfy 1 <= min <= max")
		}
	}
	if len(errs) > 0 {
		return errors.New("invalid catalog: " + strings.Join(errs, "; "))
	}
	return nil
}
