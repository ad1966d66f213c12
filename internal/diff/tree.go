// Package diff implements an order-independent structural comparison of
// schema-less document trees (map[string]any / []any / scalar) and a grammar
// that maps diff locations onto OpenAPI concepts.
package diff

import (
	"sort"
)

// Segment is a single step in a path from the document root to a node:
// either a map key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a map-key path segment.
func Key(k string) Segment {
	return Segment{Key: k}
}

// Index returns a sequence-index path segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// Path is an ordered list of segments from root to a changed node. It is
// carried as structured data end to end; it is never rendered to a string
// and re-parsed.
type Path []Segment

// child returns a new path extended by one segment. The receiver is never
// mutated, so entries produced during the same walk cannot alias.
func (p Path) child(seg Segment) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = seg
	return c
}

// Added records a node present only in the current document.
type Added struct {
	Path  Path
	Value any
}

// Removed records a node present only in the previous document.
type Removed struct {
	Path  Path
	Value any
}

// Changed records a node whose value differs between the two documents.
type Changed struct {
	Path Path
	Old  any
	New  any
}

// Set is the raw result of one structural comparison.
type Set struct {
	Added   []Added
	Removed []Removed
	Changed []Changed
}

// Empty reports whether the comparison found no differences.
func (s Set) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Changed) == 0
}

// Compare walks both trees and collects added, removed and changed nodes.
// Maps are matched by key, sequences by value equality irrespective of
// position, scalars by value. A type mismatch at a path produces exactly one
// changed entry and is never recursed into. The walk is deterministic:
// identical inputs yield an identical Set regardless of key-insertion order.
func Compare(previous, current any) Set {
	var s Set
	walk(Path{}, previous, current, &s)
	return s
}

func walk(p Path, prev, cur any, s *Set) {
	switch pv := prev.(type) {
	case map[string]any:
		cv, ok := cur.(map[string]any)
		if !ok {
			s.Changed = append(s.Changed, Changed{Path: p, Old: prev, New: cur})
			return
		}
		walkMap(p, pv, cv, s)
	case []any:
		cv, ok := cur.([]any)
		if !ok {
			s.Changed = append(s.Changed, Changed{Path: p, Old: prev, New: cur})
			return
		}
		walkSeq(p, pv, cv, s)
	default:
		if isContainer(cur) {
			s.Changed = append(s.Changed, Changed{Path: p, Old: prev, New: cur})
			return
		}
		if !scalarEqual(prev, cur) {
			s.Changed = append(s.Changed, Changed{Path: p, Old: prev, New: cur})
		}
	}
}

func walkMap(p Path, prev, cur map[string]any, s *Set) {
	keys := make([]string, 0, len(prev)+len(cur))
	seen := make(map[string]struct{}, len(prev)+len(cur))
	for k := range prev {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range cur {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		pv, inPrev := prev[k]
		cv, inCur := cur[k]
		switch {
		case inPrev && inCur:
			walk(p.child(Key(k)), pv, cv, s)
		case inCur:
			s.Added = append(s.Added, Added{Path: p.child(Key(k)), Value: cv})
		default:
			s.Removed = append(s.Removed, Removed{Path: p.child(Key(k)), Value: pv})
		}
	}
}

// walkSeq matches sequence elements irrespective of position. Elements that
// deep-equal some unmatched counterpart are consumed first; the leftovers are
// then paired in order and recursed so that internally-different elements
// report field-level changes instead of a remove/add pair.
func walkSeq(p Path, prev, cur []any, s *Set) {
	usedPrev := make([]bool, len(prev))
	usedCur := make([]bool, len(cur))

	for i, cv := range cur {
		for j, pv := range prev {
			if !usedPrev[j] && Equal(pv, cv) {
				usedPrev[j] = true
				usedCur[i] = true
				break
			}
		}
	}

	var leftPrev, leftCur []int
	for j := range prev {
		if !usedPrev[j] {
			leftPrev = append(leftPrev, j)
		}
	}
	for i := range cur {
		if !usedCur[i] {
			leftCur = append(leftCur, i)
		}
	}

	n := len(leftPrev)
	if len(leftCur) < n {
		n = len(leftCur)
	}
	for k := 0; k < n; k++ {
		walk(p.child(Index(leftCur[k])), prev[leftPrev[k]], cur[leftCur[k]], s)
	}
	for _, j := range leftPrev[n:] {
		s.Removed = append(s.Removed, Removed{Path: p.child(Index(j)), Value: prev[j]})
	}
	for _, i := range leftCur[n:] {
		s.Added = append(s.Added, Added{Path: p.child(Index(i)), Value: cur[i]})
	}
}

// Equal reports order-independent deep equality: maps are compared by key,
// sequences as multisets, scalars by value with numeric widening so that a
// YAML int and a JSON float64 holding the same number compare equal.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, ave := range av {
			bve, ok := bv[k]
			if !ok || !Equal(ave, bve) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		used := make([]bool, len(bv))
		for _, ave := range av {
			matched := false
			for i, bve := range bv {
				if !used[i] && Equal(ave, bve) {
					used[i] = true
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	default:
		if isContainer(b) {
			return false
		}
		return scalarEqual(a, b)
	}
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if _, ok := toFloat(b); ok {
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
