// Package treesearch walks decoded JSON trees depth-first with a depth bound,
// cycle protection and per-key subtree exclusion.
package treesearch

import (
	"reflect"

	"xknowledge/pkg/jsonnode"
)

// DefaultMaxDepth bounds a walk when Options.MaxDepth is zero.
const DefaultMaxDepth = 20

// Action tells Walk how to proceed after visiting a node.
type Action int

const (
	// Continue descends into the node's children.
	Continue Action = iota
	// SkipChildren moves on to the next sibling.
	SkipChildren
	// Stop ends the walk.
	Stop
)

// Options configures a walk.
type Options struct {
	// MaxDepth is the deepest level visited; the root is depth 0.
	// Zero means DefaultMaxDepth, a negative value means no bound.
	MaxDepth int

	// SkipKeys lists object member names whose subtrees are never entered.
	SkipKeys []string
}

// Visitor is called for every object and array node reached by Walk.
type Visitor func(node any, depth int) Action

// Walk visits root and its container descendants in pre-order, members in
// document order. Scalars are never passed to visit. An object reached twice
// is visited once, so self-referencing trees terminate.
func Walk(root any, opts Options, visit Visitor) {
	w := walker{
		maxDepth: opts.MaxDepth,
		skip:     make(map[string]struct{}, len(opts.SkipKeys)),
		visited:  make(map[uintptr]struct{}),
		visit:    visit,
	}
	if w.maxDepth == 0 {
		w.maxDepth = DefaultMaxDepth
	}
	for _, k := range opts.SkipKeys {
		w.skip[k] = struct{}{}
	}
	w.walk(root, 0)
}

// Find returns the first node in Walk order for which match is true.
func Find(root any, opts Options, match func(node any) bool) (any, bool) {
	var found any
	var ok bool
	Walk(root, opts, func(node any, _ int) Action {
		if match(node) {
			found, ok = node, true
			return Stop
		}
		return Continue
	})
	return found, ok
}

type walker struct {
	maxDepth int
	skip     map[string]struct{}
	visited  map[uintptr]struct{}
	visit    Visitor
	stopped  bool
}

func (w *walker) walk(node any, depth int) {
	if w.stopped || !jsonnode.IsContainer(node) {
		return
	}
	if w.maxDepth >= 0 && depth > w.maxDepth {
		return
	}

	if id, ok := identity(node); ok {
		if _, seen := w.visited[id]; seen {
			return
		}
		w.visited[id] = struct{}{}
	}

	switch w.visit(node, depth) {
	case Stop:
		w.stopped = true
		return
	case SkipChildren:
		return
	}

	_, isArray := node.([]any)
	jsonnode.Members(node, func(key string, child any) bool {
		if !isArray {
			if _, skip := w.skip[key]; skip {
				return true
			}
		}
		w.walk(child, depth+1)
		return !w.stopped
	})
}

// identity returns a stable address for objects so cycles can be detected.
// Arrays are bounded by depth alone.
func identity(node any) (uintptr, bool) {
	switch t := node.(type) {
	case *jsonnode.Object:
		return reflect.ValueOf(t).Pointer(), true
	case map[string]any:
		return reflect.ValueOf(t).Pointer(), true
	}
	return 0, false
}
