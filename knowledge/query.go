package knowledge

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/coordmesh/coordmesh/core"
)

// Filter selects knowledge items. Zero-value fields do not constrain the
// query; MinConfidence is a pointer so an explicit 0 bound is expressible.
type Filter struct {
	// Category restricts to one category. Filtering on a category the
	// exchange has never seen fails with ErrInvalidFilter.
	Category string
	// MinConfidence excludes items below the bound. Must lie in [0, 1].
	MinConfidence *float64
	// Applicability restricts to items whose applicability set contains the
	// tag (or the wildcard).
	Applicability string
	// Source restricts to items shared by one agent.
	Source string
	// Text is a case-insensitive substring match over title and description.
	Text string
}

func (f Filter) matches(item core.KnowledgeItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.MinConfidence != nil && item.Confidence < *f.MinConfidence {
		return false
	}
	if f.Source != "" && item.Source != f.Source {
		return false
	}
	if f.Applicability != "" {
		found := false
		for _, tag := range item.Applicability {
			if tag == f.Applicability || tag == core.ApplicabilityAll {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(item.Title), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	return true
}

// Query returns a lazy, finite, restartable sequence of items matching the
// filter, ordered by descending confidence with ties broken by most-recent
// first. A query that matches nothing yields an empty sequence; only
// structural filter problems (out-of-range confidence bound, unknown
// category) are errors.
func (e *Exchange) Query(f Filter) (iter.Seq[core.KnowledgeItem], error) {
	if !e.Ready() {
		return nil, fmt.Errorf("%w: knowledge exchange not initialized", core.ErrDependencyNotReady)
	}
	if f.MinConfidence != nil && (*f.MinConfidence < 0 || *f.MinConfidence > 1) {
		return nil, fmt.Errorf("%w: confidence bound %v outside [0,1]", core.ErrInvalidFilter, *f.MinConfidence)
	}

	e.mu.RLock()
	if f.Category != "" && e.categories[f.Category] == 0 {
		e.mu.RUnlock()
		return nil, fmt.Errorf("%w: unknown category %q", core.ErrInvalidFilter, f.Category)
	}
	matched := make([]core.KnowledgeItem, 0)
	for _, id := range e.order {
		if item := e.items[id]; f.matches(item) {
			matched = append(matched, item)
		}
	}
	e.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Confidence != matched[j].Confidence {
			return matched[i].Confidence > matched[j].Confidence
		}
		return matched[i].Created.After(matched[j].Created)
	})

	return func(yield func(core.KnowledgeItem) bool) {
		for _, item := range matched {
			if !yield(item) {
				return
			}
		}
	}, nil
}

// Categories returns the live category set.
func (e *Exchange) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cats := make([]string, 0, len(e.categories))
	for c, n := range e.categories {
		if n > 0 {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats
}
