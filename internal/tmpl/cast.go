package tmpl

import (
	"context"

	"github.com/l0p7/tmplengine/internal/datum"
	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/reqgraph"
)

// ToTyped runs the same kind-dispatch Expand does, then casts the resulting
// datum to dst — the C7 "expand then cast" pipeline of spec.md §4.7, used
// where a caller needs a value typed to a declared destination rather than
// the template's own natural type (e.g. binding a bareword literal to an
// attribute's dictionary type).
func ToTyped(ctx context.Context, t *Tmpl, req *reqgraph.Request, dict *dictionary.Dictionary, dst datum.Kind) (datum.Value, error) {
	v, err := Expand(ctx, t, req, dict)
	if err != nil {
		return datum.Value{}, err
	}
	return datum.Cast(v, dst)
}

// CastInPlace mutates t to hold dst-typed Data, the primary Unparsed→Data
// transition of spec.md §3/§4.7: a bareword literal's t.name is parsed as
// dst and the template becomes Data(dst). Casting a Data template already of
// kind dst is a no-op, per spec.md §8 ("cast_in_place(t,T) then
// cast_in_place(t,T) is a no-op"); casting Data of a different kind re-casts
// through datum.Cast. Any other kind returns ErrWrongKind.
func CastInPlace(t *Tmpl, dst datum.Kind) error {
	switch t.kind {
	case KindData:
		if t.data.Kind() == dst {
			return nil
		}
		v, err := datum.Cast(t.data, dst)
		if err != nil {
			return err
		}
		t.data = v
		t.name = v.String()
		return nil

	case KindUnparsed:
		v, err := datum.Parse(dst, t.name)
		if err != nil {
			return err
		}
		t.kind = KindData
		t.data = v
		t.name = v.String()
		return nil

	default:
		return ErrWrongKind
	}
}

// CastToPair renders t as a reqgraph.Pair typed to da, the write-side
// counterpart of Expand used by assignment operators (":=", "+="). A Data
// template's datum is copied as-is; every expandable kind (Unparsed, Xlat,
// Exec, Attr, AttrUndefined) is expanded to a string and then reparsed as
// da.Type through the value-datum collaborator, matching the original
// engine's "stringify then reparse to the destination attribute's type"
// cast_to_pair behavior. List and Regex templates are never expandable and
// return ErrWrongKind.
func CastToPair(ctx context.Context, req *reqgraph.Request, dict *dictionary.Dictionary, t *Tmpl, da dictionary.AttrDef, tag int) (reqgraph.Pair, error) {
	switch t.kind {
	case KindData:
		return reqgraph.Pair{Name: da.Name, Tag: tag, Value: t.data.String()}, nil

	case KindUnparsed, KindXlat, KindXlatCompiled, KindExec, KindAttr, KindAttrUndefined:
		v, err := Expand(ctx, t, req, dict)
		if err != nil {
			return reqgraph.Pair{}, err
		}
		typed, err := datum.Parse(da.Type, v.String())
		if err != nil {
			return reqgraph.Pair{}, err
		}
		return reqgraph.Pair{Name: da.Name, Tag: tag, Value: typed.String()}, nil

	default:
		return reqgraph.Pair{}, ErrWrongKind
	}
}

// DefineUnknown promotes an Attr(unknown) template in place to Attr(known),
// the spec.md §3/§4.7 "unknown attributes become well-known for the
// remainder of the request" transition. It registers t's self-owned
// descriptor in dict (best-effort Octets typing, matching the original
// engine's fallback for OIDs it cannot otherwise type) and re-points
// t.dictAttr at the resolved entry, releasing the self-owned unknownDesc.
// Promoting an already-known Attr template is a no-op, making the operation
// idempotent; t must be KindAttr with a dict_attr, or ErrWrongKind is
// returned.
func DefineUnknown(dict *dictionary.Dictionary, t *Tmpl) error {
	if t.kind != KindAttr || t.dictAttr == nil {
		return ErrWrongKind
	}
	if !t.dictAttr.IsUnknown {
		return nil
	}

	oid := t.dictAttr.OID
	if resolved, ok := dict.LookupOID(oid); ok && !resolved.IsUnknown {
		t.dictAttr = &resolved
		t.unknownDesc = nil
		return nil
	}

	def := *t.dictAttr
	def.IsUnknown = false
	if def.Type == datum.Invalid {
		def.Type = datum.Octets
	}
	if err := dict.Define(def); err != nil {
		return err
	}
	resolved, _ := dict.LookupOID(def.OID)
	t.dictAttr = &resolved
	t.unknownDesc = nil
	return nil
}

// DefineUndefined promotes an AttrUndefined template in place to Attr(known)
// once its name's type becomes known (spec.md §3/§4.7). If dict already
// holds a definition for t's name with the same type and tag flag, t is
// re-pointed at it; if dict holds an incompatible definition (different
// type or HasTag), ErrTypeMismatch is returned and t is left untouched.
// Otherwise a new definition is registered and t promoted to it. t must be
// KindAttrUndefined, or ErrWrongKind is returned.
func DefineUndefined(dict *dictionary.Dictionary, t *Tmpl, dstType datum.Kind, hasTag bool) error {
	if t.kind != KindAttrUndefined {
		return ErrWrongKind
	}

	name := t.undefinedName
	if existing, ok := dict.Lookup(name); ok {
		if existing.Type != dstType || existing.HasTag != hasTag {
			return ErrTypeMismatch
		}
		t.dictAttr = &existing
		t.kind = KindAttr
		t.undefinedName = ""
		return nil
	}

	def := dictionary.AttrDef{Name: name, Type: dstType, HasTag: hasTag}
	if err := dict.Define(def); err != nil {
		return err
	}
	resolved, _ := dict.Lookup(name)
	t.dictAttr = &resolved
	t.kind = KindAttr
	t.undefinedName = ""
	return nil
}
