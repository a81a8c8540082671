package tmpl

import "github.com/l0p7/tmplengine/internal/dictionary"

// ParseRequestName scans the request qualifier prefix ("current.", "parent.",
// "outer.", "proxy.") at the start of name. It implements spec.md §4.1's
// parse_request_name: scan while bytes are dictionary-allowed and not '.' or
// '-'; if the delimiter found is not '.', there is no request qualifier here
// and (0, def) is returned; otherwise the scanned keyword is looked up and
// (len+1, ref) is returned on a hit, (0, RequestUnknown) on a miss.
func ParseRequestName(name string, def RequestRef) (consumed int, ref RequestRef) {
	i := 0
	for i < len(name) && dictionary.IsDictChar(name[i]) && name[i] != '.' && name[i] != '-' {
		i++
	}
	if i >= len(name) || name[i] != '.' {
		return 0, def
	}
	word := name[:i]
	for _, kw := range requestKeywords {
		if kw.name == word {
			return i + 1, kw.ref
		}
	}
	return 0, RequestUnknown
}

// ParseListName scans the list qualifier prefix (e.g. "request:", "coa:") at
// the start of name, implementing spec.md §4.1's parse_list_name including
// the tag-vs-list discriminator: when the delimiter is ':', bytes immediately
// after it are checked — if they are all decimal digits followed by a
// non-dictionary-char, this ':' belongs to a tag suffix on a bare attribute
// name, not a list qualifier, and (0, def) is returned.
func ParseListName(name string, def ListRef) (consumed int, ref ListRef) {
	i := 0
	for i < len(name) && dictionary.IsDictChar(name[i]) {
		i++
	}
	if i >= len(name) {
		word := name[:i]
		for _, kw := range listKeywords {
			if kw.name == word {
				return i, kw.ref
			}
		}
		return 0, def
	}
	if name[i] != ':' {
		// Anything other than ':' or end-of-string here means this is not a
		// list qualifier at all (e.g. "reply[0]" is the attribute "reply"
		// with an index, not List{Reply}[0]) — radius_list_name's default
		// case in the original engine.
		return 0, def
	}

	if looksLikeTagSuffix(name[i+1:]) {
		return 0, def
	}

	word := name[:i]
	for _, kw := range listKeywords {
		if kw.name == word {
			return i + 1, kw.ref
		}
	}
	return 0, ListUnknown
}

// looksLikeTagSuffix reports whether rest is a run of decimal digits
// followed by a non-dictionary-char (or end of string) — the shape of a
// ":<tag>" suffix on a bare attribute name rather than a list qualifier.
func looksLikeTagSuffix(rest string) bool {
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return false
	}
	if i == len(rest) {
		return true
	}
	return !dictionary.IsDictChar(rest[i])
}
