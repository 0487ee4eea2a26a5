package action

import (
	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how far a typo may be from a real target id
// before no suggestion is offered.
const maxSuggestionDistance = 4

// Catalog indexes the attackable network by id.
type Catalog struct {
	byID  map[string]Target
	order []string
}

// NewCatalog indexes targets. Later duplicates are ignored.
func NewCatalog(targets []Target) *Catalog {
	c := &Catalog{byID: make(map[string]Target, len(targets))}
	for _, t := range targets {
		id := normalizeID(t.ID)
		if _, dup := c.byID[id]; dup || id == "" {
			continue
		}
		c.byID[id] = t
		c.order = append(c.order, id)
	}
	return c
}

// Lookup finds a target by id, ignoring case and surrounding space.
func (c *Catalog) Lookup(id string) (Target, bool) {
	t, ok := c.byID[normalizeID(id)]
	return t, ok
}

// Suggest returns the closest hostile or neutral target id to a mistyped
// one, or "" when nothing is close.
func (c *Catalog) Suggest(id string) string {
	id = normalizeID(id)
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, candidate := range c.order {
		if c.byID[candidate].Faction == FactionAlly {
			continue
		}
		d := levenshtein.ComputeDistance(id, candidate)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}

// Targets returns the catalog in declaration order.
func (c *Catalog) Targets() []Target {
	out := make([]Target, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
