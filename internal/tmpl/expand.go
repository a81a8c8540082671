package tmpl

import (
	"context"

	"github.com/l0p7/tmplengine/internal/datum"
	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/expr"
	"github.com/l0p7/tmplengine/internal/handlecache"
	"github.com/l0p7/tmplengine/internal/reqgraph"
	"github.com/l0p7/tmplengine/internal/shellexec"
)

// DefaultHandleCache, when set by the process wiring it up (cmd/tmplctl),
// memoizes compiled xlat programs and regexes across Expand calls so a
// template reused across many requests is only compiled once. A nil value
// (the default) disables memoization and compiles on every Expand.
var DefaultHandleCache *handlecache.HandleCache

// resolveAttr is the callback xlat expansion uses to pull attribute values
// out of the request graph; expr.Eval calls back into tmpl rather than the
// reverse, since expr has no notion of a request graph of its own.
func resolveAttr(ctx context.Context, dict *dictionary.Dictionary, req *reqgraph.Request) func(name string) (string, bool) {
	return func(name string) (string, bool) {
		t, err := ParseAttrFull(dict, name, RequestCurrent, ListRequest, true, false)
		if err != nil {
			return "", false
		}
		v, err := Expand(ctx, t, req, dict)
		if err != nil {
			return "", false
		}
		return v.String(), true
	}
}

// Expand implements the C7 "expand to typed datum" operation of spec.md §5:
// every Kind except List and the two Regex kinds reduces to a single
// datum.Value. List expansion is iteration, not reduction, so it is left to
// the cursor; regex templates are consumed by MatchRegex instead.
func Expand(ctx context.Context, t *Tmpl, req *reqgraph.Request, dict *dictionary.Dictionary) (datum.Value, error) {
	switch t.kind {
	case KindData:
		return t.data, nil

	case KindAttr:
		list, err := ResolveList(req, t.ref.RequestRef, t.ref.ListRef)
		if err != nil {
			return datum.Value{}, err
		}
		c := CursorInit(list, t.dictAttr.Name, t.ref.Tag, firstSelectorNum(t.ref.Num))
		pair, ok := c.Next()
		if !ok {
			return datum.Value{}, ErrNoMatch
		}
		return datum.Parse(t.dictAttr.Type, pair.Value)

	case KindAttrUndefined:
		list, err := ResolveList(req, t.ref.RequestRef, t.ref.ListRef)
		if err != nil {
			return datum.Value{}, err
		}
		c := CursorInit(list, t.undefinedName, t.ref.Tag, firstSelectorNum(t.ref.Num))
		pair, ok := c.Next()
		if !ok {
			return datum.Value{}, ErrNoMatch
		}
		return datum.Parse(datum.String, pair.Value)

	case KindList:
		return datum.Value{}, ErrNotExpandable

	case KindXlat, KindXlatCompiled:
		prog := t.xlatProgram
		if prog == nil {
			if cached, ok := DefaultHandleCache.GetXlat(t.name); ok {
				prog = cached
			} else {
				p, err := expr.Compile(t.name)
				if err != nil {
					return datum.Value{}, ErrXlatFailed
				}
				prog = p
				DefaultHandleCache.PutXlat(t.name, p)
			}
			t.xlatProgram = prog
			t.kind = KindXlatCompiled
		}
		out, err := prog.Eval(resolveAttr(ctx, dict, req))
		if err != nil {
			return datum.Value{}, ErrXlatFailed
		}
		return datum.New(datum.String, out)

	case KindExec:
		out, err := shellexec.Run(ctx, t.name, nil)
		if err != nil {
			return datum.Value{}, ErrExecFailed
		}
		return datum.New(datum.String, out)

	case KindUnparsed:
		return datum.New(datum.String, t.name)

	case KindNull:
		return datum.Value{}, nil

	case KindRegex, KindRegexCompiled:
		return datum.Value{}, ErrNotExpandable

	default:
		return datum.Value{}, ErrNotExpandable
	}
}

// firstSelectorNum maps the NumCount selector (a cardinality query, not an
// iteration position) onto NumAny for Expand's single-value read, since
// expanding "&Attr[#]" to a scalar means "the first match", matching the
// original engine's behaviour for non-cursor contexts.
func firstSelectorNum(num int) int {
	if num == NumCount {
		return NumAny
	}
	return num
}
