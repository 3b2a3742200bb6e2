package catalog

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"skrawl/internal/geometry"
)

// Instance is one generated realization of a template. It is never
// mutated after generation; progress through it lives with the caller.
type Instance struct {
	ID              string
	Name            string
	Mode            Mode
	Threshold       float64
	Shapes          []geometry.Shape
	Guides          []geometry.Shape
	TotalReward     int
	TransitionLabel string
}

// Len returns the number of target shapes.
func (in Instance) Len() int {
	return len(in.Shapes)
}

// Shape returns the target at index i.
func (in Instance) Shape(i int) (geometry.Shape, bool) {
	if i < 0 || i >= len(in.Shapes) {
		return nil, false
	}
	return in.Shapes[i], true
}

// Catalog generates fresh minigame instances from a set of templates.
// It is safe for concurrent use.
type Catalog struct {
	mu        sync.Mutex
	rng       *rand.Rand
	templates []Template
	byID      map[string]Template
	dots      int
}

// New builds a catalog over templates. A nil rng is seeded from the clock.
func New(templates []Template, rng *rand.Rand) *Catalog {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	c := &Catalog{
		rng:       rng,
		templates: append([]Template(nil), templates...),
		byID:      make(map[string]Template, len(templates)),
	}
	for _, t := range c.templates {
		c.byID[t.ID] = t
	}
	return c
}

// Enabled drops extra templates unless extras is set.
func Enabled(templates []Template, extras bool) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if t.Extra && !extras {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Templates returns the catalog's templates in declaration order.
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

// Template looks up a template by id.
func (c *Catalog) Template(id string) (Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

func (c *Catalog) gen(b geometry.Bounds) generator {
	if b.Empty() {
		b = geometry.DefaultBounds
	}
	return generator{rng: c.rng, b: b, dots: &c.dots}
}

// RandomSet returns one fresh instance of every template.
func (c *Catalog) RandomSet(b geometry.Bounds) []Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gen(b)
	out := make([]Instance, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, g.instance(t))
	}
	return out
}

// Random returns a fresh instance of a uniformly chosen template.
func (c *Catalog) Random(b geometry.Bounds) Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.templates) == 0 {
		return Instance{}
	}
	t := c.templates[c.rng.IntN(len(c.templates))]
	return c.gen(b).instance(t)
}

// Instance returns a fresh instance of the template with the given id.
func (c *Catalog) Instance(id string, b geometry.Bounds) (Instance, error) {
	t, ok := c.byID[id]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %s", ErrUnknownMinigame, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen(b).instance(t), nil
}
