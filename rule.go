// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cellforge

import (
	"strconv"
	"strings"

	"cellforge/internal/constraints"
	"cellforge/internal/debug"
)

// Rule is a cross-field constraint declared on a record's class, resolved
// against its instances at imputation time (§4.D).
type Rule interface {
	paths() []string
}

// equalRule ties a set of sibling paths to one shared value: whichever of
// them is defined determines the content of the rest.
type equalRule struct {
	rel []string
}

func (r equalRule) paths() []string { return r.rel }

// Equal declares that every leaf named by rel (dotted paths relative to
// the descriptor Equal is attached to, via WithRules) must carry the same
// value. At most one of them needs to be set explicitly; the others are
// imputed from it.
func Equal(rel ...string) Rule {
	return equalRule{rel: append([]string{}, rel...)}
}

// LinearTerm is one (scalar, path) summand of a reserved linear rule.
type LinearTerm struct {
	Scalar float64
	Path   string
}

type linearRule struct {
	terms []LinearTerm
}

func (r linearRule) paths() []string {
	out := make([]string, len(r.terms))
	for i, t := range r.terms {
		out[i] = t.Path
	}
	return out
}

// Linear declares a linear constraint among sibling leaves (e.g. a field
// that must equal the sum of others, scaled). Reserved: the solver is not
// implemented. Linear rules are skipped when rule components are built,
// so they impute nothing and raise no error.
func Linear(terms ...LinearTerm) Rule {
	return linearRule{terms: append([]LinearTerm{}, terms...)}
}

// ruleGroups walks the whole tree rooted at root, resolving every Equal
// rule's relative paths against the cell whose descriptor declared it,
// and unions their absolute paths into connected components. One pass is
// built fresh per query; rule graphs are small and this runs only while a
// leaf is undefined, so the cost is not on the hot path of a defined
// parse.
func (root *Cell) ruleGroups() *constraints.Group[string] {
	g := constraints.New[string]()
	var walk func(c *Cell)
	walk = func(c *Cell) {
		n := c.node()
		for _, r := range n.desc.Rules {
			switch rr := r.(type) {
			case linearRule:
				_ = debug.Unsupported()
				continue
			case equalRule:
				var abs []string
				for _, rel := range rr.rel {
					if p, ok := resolveRelPath(c, rel); ok {
						abs = append(abs, p)
					}
				}
				for i := 1; i < len(abs); i++ {
					g.Union(abs[0], abs[i])
				}
			}
		}
		for _, h := range n.children {
			walk(&Cell{a: c.a, h: h})
		}
	}
	walk(root)
	return g
}

// resolveRelPath walks rel (dotted field names / array indices) from
// start and returns the absolute path of the cell it names. The final
// segment may also name "count" or "packlen" on a VarWrap, in which case
// the returned path addresses that VarWrap's virtual subcell (§3.1)
// rather than an ordinary child — see [ruleTargetAt].
func resolveRelPath(start *Cell, rel string) (string, bool) {
	segs := strings.Split(rel, ".")
	cur := start
	for i, seg := range segs {
		if i == len(segs)-1 && cur.Kind() == KindVarWrap && (seg == "count" || seg == "packlen") {
			_, p := cur.Path()
			if p == "" {
				return seg, true
			}
			return p + "." + seg, true
		}
		if idx, err := strconv.Atoi(seg); err == nil {
			cur = cur.elem(idx)
		} else {
			cur = cur.field(seg)
		}
		if cur == nil {
			return "", false
		}
	}
	_, p := cur.Path()
	return p, true
}

// cellAtPath resolves an absolute dotted path, as produced by Cell.Path,
// back to a cell starting from root. It does not resolve a VarWrap's
// virtual count/packlen subcells; see [ruleTargetAt] for that.
func cellAtPath(root *Cell, path string) *Cell {
	if path == "" {
		return root
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		if idx, err := strconv.Atoi(seg); err == nil {
			cur = cur.elem(idx)
		} else {
			cur = cur.field(seg)
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// ruleTarget names the thing an absolute rule path resolves to: either an
// ordinary cell, or one of a VarWrap's virtual count/packlen subcells
// (cell.go's varCount/varPacklen). imputedValueFor reads and the rule
// engine compares across both uniformly.
type ruleTarget struct {
	cell    *Cell
	virtual string // "", "count", or "packlen"
}

// ruleTargetAt is [cellAtPath] extended to also resolve a path's final
// segment against a VarWrap's virtual subcells.
func ruleTargetAt(root *Cell, path string) (ruleTarget, bool) {
	if path == "" {
		return ruleTarget{cell: root}, true
	}
	segs := strings.Split(path, ".")
	cur := root
	for i, seg := range segs {
		if i == len(segs)-1 && cur.Kind() == KindVarWrap && (seg == "count" || seg == "packlen") {
			return ruleTarget{cell: cur, virtual: seg}, true
		}
		var next *Cell
		if idx, err := strconv.Atoi(seg); err == nil {
			next = cur.elem(idx)
		} else {
			next = cur.field(seg)
		}
		if next == nil {
			return ruleTarget{}, false
		}
		cur = next
	}
	return ruleTarget{cell: cur}, true
}

// sameTarget reports whether a and b name the same cell and virtual
// accessor (or no accessor, for an ordinary cell target).
func sameTarget(a, b ruleTarget) bool {
	return a.cell.a == b.cell.a && a.cell.h == b.cell.h && a.virtual == b.virtual
}

func (t ruleTarget) path() string {
	_, p := t.cell.Path()
	if t.virtual == "" {
		return p
	}
	if p == "" {
		return t.virtual
	}
	return p + "." + t.virtual
}

func (t ruleTarget) isDef() bool {
	switch t.virtual {
	case "":
		return t.cell.IsDef()
	case "count":
		_, ok := t.cell.VirtualCount()
		return ok
	default: // "packlen"
		_, ok := t.cell.VirtualPackLen()
		return ok
	}
}

// value returns t's current content, as the int64/leaf-value pair
// imputedValueFor's one-vs-many resolution compares with [valuesEqual].
func (t ruleTarget) value() (any, bool) {
	switch t.virtual {
	case "":
		if !t.cell.IsDef() {
			return nil, false
		}
		return t.cell.node().leafVal, true
	case "count":
		n, ok := t.cell.VirtualCount()
		return int64(n), ok
	default: // "packlen"
		n, ok := t.cell.VirtualPackLen()
		return int64(n), ok
	}
}

// componentOf returns every path in the same equality component as path,
// path included.
func componentOf(g *constraints.Group[string], path string) []string {
	rep := g.Find(path)
	var out []string
	for k := range g.Members() {
		if g.Find(k) == rep {
			out = append(out, k)
		}
	}
	return out
}

func appendDistinct(vals []any, v any) []any {
	for _, existing := range vals {
		if valuesEqual(existing, v) {
			return vals
		}
	}
	return append(vals, v)
}

// imputedOrDefault resolves the value an undefined leaf should read as,
// per §4.D: within its rule-equality component, a single distinct defined
// value propagates to every undefined member; multiple distinct defined
// values leave each leaf to its own content (no imputation here, only its
// own default); and with nothing defined, declared defaults across the
// component follow the same one-vs-many resolution.
func (c *Cell) imputedOrDefault() (any, bool) {
	return imputedValueFor(ruleTarget{cell: c})
}

// imputedCount resolves a VarWrap's element count from its rule-equality
// component when it has no explicit count of its own — the reciprocal of
// imputedOrDefault's leaf-side resolution, used by [Cell.VirtualCount] so
// that a sibling leaf tied to this varwrap via [Equal] can drive its
// greedy parse the same way a CountFn would.
func (c *Cell) imputedCount() (int, bool) {
	v, ok := imputedValueFor(ruleTarget{cell: c, virtual: "count"})
	if !ok {
		return 0, false
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// imputedPackLen is [Cell.imputedCount] for a VarWrap's byte budget.
func (c *Cell) imputedPackLen() (int, bool) {
	v, ok := imputedValueFor(ruleTarget{cell: c, virtual: "packlen"})
	if !ok {
		return 0, false
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// imputedValueFor is the shared resolution behind imputedOrDefault,
// imputedCount, and imputedPackLen: it walks self's rule-equality
// component and applies §4.D's one-vs-many rule uniformly, whether the
// component's members are ordinary leaves or a VarWrap's virtual
// count/packlen subcells.
func imputedValueFor(self ruleTarget) (any, bool) {
	root := self.cell.Root()
	path := self.path()

	g := root.ruleGroups()
	members := componentOf(g, path)

	var defined []any
	for _, m := range members {
		mt, ok := ruleTargetAt(root, m)
		// self is, by construction, still being resolved here: reading
		// its own virtual accessor would recurse back into this same
		// call. A plain leaf self has no such accessor — it is simply
		// undefined, so mt.isDef() already excludes it below — but a
		// virtual self must be skipped explicitly.
		if !ok || sameTarget(mt, self) || !mt.isDef() {
			continue
		}
		v, ok := mt.value()
		if ok {
			defined = appendDistinct(defined, v)
		}
	}

	leafDefault := func() (any, bool) {
		if self.virtual != "" {
			return nil, false
		}
		d := self.cell.node().desc
		if d.HasDefault {
			return d.Default, true
		}
		return nil, false
	}

	switch len(defined) {
	case 1:
		return defined[0], true
	case 0:
		// fall through to defaults below
	default:
		return leafDefault()
	}

	if self.virtual != "" {
		return nil, false
	}
	var defaults []any
	for _, m := range members {
		mt, ok := ruleTargetAt(root, m)
		if ok && mt.virtual == "" && mt.cell.node().desc.HasDefault {
			defaults = appendDistinct(defaults, mt.cell.node().desc.Default)
		}
	}
	if len(defaults) == 1 {
		return defaults[0], true
	}
	return leafDefault()
}
