package tmpl

import (
	"strconv"

	"github.com/l0p7/tmplengine/internal/dictionary"
)

// ParseAttrSubstr implements the attribute-reference grammar of spec.md §4.2
// and §6 over a prefix of name, returning the number of bytes consumed and
// the resulting template. On syntactic failure it returns a *ParseError
// whose Offset is the byte position at which parsing failed (spec.md §6's
// error-offset convention); callers that need the classic "negative byte
// offset" return value can read err.(*ParseError).Offset directly.
//
// allowUnknown permits the OID fallback form (Attr-1.2.3.4) for names the
// dictionary does not resolve; allowUndefined permits capturing a literal,
// not-yet-defined attribute name instead of failing.
func ParseAttrSubstr(dict *dictionary.Dictionary, name string, defaultReq RequestRef, defaultList ListRef, allowUnknown, allowUndefined bool) (int, *Tmpl, error) {
	p := 0
	if len(name) > 0 && name[0] == '&' {
		p++
	}

	consumed, reqRef := ParseRequestName(name[p:], defaultReq)
	if reqRef == RequestUnknown {
		return 0, nil, &ParseError{Offset: p, Reason: "unknown request qualifier"}
	}
	p += consumed

	consumed, listRef := ParseListName(name[p:], defaultList)
	if listRef == ListUnknown {
		return 0, nil, &ParseError{Offset: p, Reason: "unknown list qualifier"}
	}
	p += consumed

	ref := attrRef{RequestRef: reqRef, ListRef: listRef, Tag: TagAny, Num: NumAny}

	// Step 4: attribute selector.
	if p >= len(name) {
		return p, NewList(name, QuoteBare, reqRef, listRef, NumAny), nil
	}
	if name[p] == '[' {
		t := NewList(name, QuoteBare, reqRef, listRef, NumAny)
		end, num, err := parseInstanceSelector(name[p:])
		if err != nil {
			return 0, nil, offsetErr(p, err)
		}
		t.ref.Num = num
		p += end
		return p, t, nil
	}

	token := scanDictToken(name[p:])

	if def, ok := dict.Lookup(token); ok && token != "" {
		p += len(token)
		return finishAttr(dict, name, p, ref, &def, false)
	}

	if oidLen, oid, ok := parseOIDToken(name[p:]); ok {
		if def, found := dict.LookupOID(oid); found {
			ref.AutoConverted = true
			p += oidLen
			return finishAttr(dict, name, p, ref, &def, false)
		}
		if allowUnknown {
			unknown := dictionary.AttrDef{Name: name[p : p+oidLen], OID: oid, IsUnknown: true}
			p += oidLen
			return finishAttrUnknown(name, p, ref, unknown)
		}
		return 0, nil, &ParseError{Offset: p, Reason: "attribute not found by oid and unknown attributes are not allowed here"}
	}

	if token == "" {
		return 0, nil, &ParseError{Offset: p, Reason: "expected attribute name"}
	}

	if allowUndefined {
		if len(token) > undefinedNameCap {
			return 0, nil, &ParseError{Offset: p, Reason: "undefined attribute name too long"}
		}
		p += len(token)
		t := &Tmpl{
			kind:          KindAttrUndefined,
			name:          name,
			quote:         QuoteBare,
			ref:           ref,
			undefinedName: token,
		}
		return finishIndex(name, p, t)
	}

	return 0, nil, ErrUnknownAttr
}

func finishAttr(dict *dictionary.Dictionary, name string, p int, ref attrRef, def *dictionary.AttrDef, skipTag bool) (int, *Tmpl, error) {
	t := &Tmpl{kind: KindAttr, name: name, quote: QuoteBare, ref: ref, dictAttr: def}
	if !skipTag {
		end, tag, hadTag, err := parseTagSelector(name[p:])
		if err != nil {
			return 0, nil, offsetErr(p, err)
		}
		if hadTag {
			if !def.HasTag {
				return 0, nil, &ParseError{Offset: p, Reason: "attribute " + def.Name + " does not support tags"}
			}
			t.ref.Tag = tag
			p += end
		}
	}
	return finishIndex(name, p, t)
}

func finishAttrUnknown(name string, p int, ref attrRef, unknown dictionary.AttrDef) (int, *Tmpl, error) {
	t := &Tmpl{kind: KindAttr, name: name, quote: QuoteBare, ref: ref}
	t.unknownDesc = &unknown
	t.dictAttr = t.unknownDesc
	t.ref.Tag = TagNone
	return finishIndex(name, p, t)
}

func finishIndex(name string, p int, t *Tmpl) (int, *Tmpl, error) {
	if p < len(name) && name[p] == '[' {
		end, num, err := parseInstanceSelector(name[p:])
		if err != nil {
			return 0, nil, offsetErr(p, err)
		}
		t.ref.Num = num
		p += end
	}
	return p, t, nil
}

// scanDictToken returns the longest dictionary-char prefix of s.
func scanDictToken(s string) string {
	i := 0
	for i < len(s) && dictionary.IsDictChar(s[i]) {
		i++
	}
	return s[:i]
}

// parseOIDToken recognizes the 'Attr-' dec ('.' dec)* form.
func parseOIDToken(s string) (consumed int, oid []int, ok bool) {
	const prefix = "Attr-"
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return 0, nil, false
	}
	i := len(prefix)
	var segs []int
	for {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, nil, false
		}
		n, err := strconv.Atoi(s[start:i])
		if err != nil {
			return 0, nil, false
		}
		segs = append(segs, n)
		if i < len(s) && s[i] == '.' {
			i++
			continue
		}
		break
	}
	return i, segs, true
}

// parseTagSelector parses an optional ":<digits>" tag suffix. hadTag is
// false when s does not begin with a tag suffix at all (distinct from "tag
// parsed as None").
func parseTagSelector(s string) (consumed int, tag int, hadTag bool, err error) {
	if len(s) == 0 || s[0] != ':' {
		return 0, 0, false, nil
	}
	i := 1
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, 0, false, nil
	}
	n, convErr := strconv.Atoi(s[start:i])
	if convErr != nil || n < 0 || n > MaxTag {
		return 0, 0, false, &ParseError{Offset: 0, Reason: "tag out of range 0.." + strconv.Itoa(MaxTag)}
	}
	return i, n, true, nil
}

// parseInstanceSelector parses the mandatory-bracket "[...]" instance
// selector: '#' (Count), '*' (All), 'n' (Last), or a decimal in [0,1000].
func parseInstanceSelector(s string) (consumed int, num int, err error) {
	if len(s) == 0 || s[0] != '[' {
		return 0, 0, &ParseError{Offset: 0, Reason: "expected '['"}
	}
	i := 1
	if i >= len(s) {
		return 0, 0, &ParseError{Offset: i, Reason: "unterminated index selector"}
	}
	switch s[i] {
	case '#':
		num = NumCount
		i++
	case '*':
		num = NumAll
		i++
	case 'n':
		num = NumLast
		i++
	default:
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, 0, &ParseError{Offset: i, Reason: "expected index digits, '#', '*', or 'n'"}
		}
		n, convErr := strconv.Atoi(s[start:i])
		if convErr != nil || n < 0 || n > MaxNum {
			return 0, 0, &ParseError{Offset: start, Reason: "index out of range 0.." + strconv.Itoa(MaxNum)}
		}
		num = n
	}
	if i >= len(s) || s[i] != ']' {
		return 0, 0, &ParseError{Offset: i, Reason: "missing closing ']'"}
	}
	return i + 1, num, nil
}

// offsetErr rebases a sub-parser's relative ParseError.Offset onto the
// parent parser's absolute position base.
func offsetErr(base int, err error) error {
	if pe, ok := err.(*ParseError); ok {
		return &ParseError{Offset: base + pe.Offset, Reason: pe.Reason}
	}
	return err
}

// ParseAttrFull wraps ParseAttrSubstr and additionally errors if any bytes
// remain unconsumed after a successful parse (spec.md §4.2's "full-string"
// surface).
func ParseAttrFull(dict *dictionary.Dictionary, name string, defaultReq RequestRef, defaultList ListRef, allowUnknown, allowUndefined bool) (*Tmpl, error) {
	n, t, err := ParseAttrSubstr(dict, name, defaultReq, defaultList, allowUnknown, allowUndefined)
	if err != nil {
		return nil, err
	}
	if n != len(name) {
		return nil, &ParseError{Offset: n, Reason: "unexpected text after " + t.Kind().String()}
	}
	return t, nil
}
