package tmpl

import (
	"strings"

	"github.com/l0p7/tmplengine/internal/datum"
	"github.com/l0p7/tmplengine/internal/dictionary"
)

// FromString implements the C4 string→template dispatcher of spec.md §4.4:
// given the source text and the quoting token the caller already stripped
// (the lexer layer above tmpl owns matching quote characters), it decides
// which Kind the text becomes and runs the matching sub-parser.
//
// allowUnknown/allowUndefined are forwarded to ParseAttrFull exactly as in
// spec.md §4.2; a leading '&' on a bareword is the conventional signal a
// caller uses to mean "this might be an attribute reference", but the flags
// themselves are what actually gate the OID/undefined fallbacks.
func FromString(dict *dictionary.Dictionary, s string, quote Quote, defaultReq RequestRef, defaultList ListRef, allowUnknown, allowUndefined bool) (*Tmpl, error) {
	if (quote == QuoteBare || quote == QuoteDouble) && !strings.ContainsRune(s, '%') {
		if oct, ok := tryHexLiteral(s); ok {
			return dataTmpl(oct, quote)
		}
	}

	switch quote {
	case QuoteBare:
		if looksLikeAttrRef(s) {
			n, t, err := ParseAttrSubstr(dict, s, defaultReq, defaultList, allowUnknown, allowUndefined)
			if err == nil && n == len(s) {
				return t, nil
			}
			if err != nil {
				return nil, err
			}
			return nil, &ParseError{Offset: n, Reason: "unexpected text after attribute reference"}
		}
		v, err := datum.New(datum.String, s)
		if err != nil {
			return nil, err
		}
		return dataTmpl(v, quote)

	case QuoteSingle:
		v, err := datum.New(datum.String, s)
		if err != nil {
			return nil, err
		}
		return dataTmpl(v, quote)

	case QuoteDouble:
		if strings.ContainsRune(s, '%') {
			return &Tmpl{kind: KindXlat, name: s, quote: quote}, nil
		}
		v, err := datum.New(datum.String, s)
		if err != nil {
			return nil, err
		}
		return dataTmpl(v, quote)

	case QuoteBack:
		return &Tmpl{kind: KindExec, name: s, quote: quote}, nil

	case QuoteRegex:
		pattern, iflag, mflag := splitRegexFlags(s)
		return &Tmpl{kind: KindRegex, name: pattern, quote: quote, regexIFlag: iflag, regexMFlag: mflag}, nil

	default:
		return nil, &ParseError{Offset: 0, Reason: "invalid quote kind"}
	}
}

func dataTmpl(v datum.Value, quote Quote) (*Tmpl, error) {
	return &Tmpl{kind: KindData, name: v.String(), quote: quote, data: v}, nil
}

// tryHexLiteral recognizes a bare "0x..." octet-string literal, independent
// of the surrounding quote style, per spec.md §4.4's hex-literal carve-out.
func tryHexLiteral(s string) (datum.Value, bool) {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return datum.Value{}, false
	}
	v, err := datum.Parse(datum.Octets, s)
	if err != nil {
		return datum.Value{}, false
	}
	return v, true
}

// looksLikeAttrRef applies a cheap syntactic pre-check before handing a bare
// token to the full attribute-reference parser: an explicit '&' always
// commits to attribute-reference parsing, and otherwise we only attempt it
// when the token is shaped like a dictionary name or request/list qualifier
// rather than arbitrary literal text (spec.md §4.4).
func looksLikeAttrRef(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[0] == '&' {
		return true
	}
	return dictionary.IsDictChar(s[0])
}

// splitRegexFlags separates trailing "i"/"m" flag letters from a regex
// literal's pattern body, per spec.md §4.4's Regex dispatch.
func splitRegexFlags(s string) (pattern string, iflag, mflag bool) {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == 'i' {
			iflag = true
			i--
			continue
		}
		if c == 'm' {
			mflag = true
			i--
			continue
		}
		break
	}
	// Only treat the suffix as flags when it is strictly shorter than the
	// whole string, so a pattern consisting solely of 'i'/'m' characters is
	// not misread as an empty pattern with flags.
	if i == 0 {
		return s, false, false
	}
	return s[:i], iflag, mflag
}
