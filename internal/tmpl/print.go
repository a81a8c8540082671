package tmpl

import "strconv"

// Print renders t back to the minimal source text that would re-parse to an
// equivalent template, implementing spec.md §6's canonical pretty-printer.
// Request/list qualifiers are only emitted when they differ from the
// engine's defaults (current request, request list), matching how the
// original engine prints templates for log/debug output.
func Print(t *Tmpl) string {
	switch t.kind {
	case KindNull:
		return ""
	case KindUnparsed, KindData:
		return quoteText(t.name, t.quote)
	case KindXlat, KindXlatCompiled:
		return `"` + t.name + `"`
	case KindExec:
		return "`" + t.name + "`"
	case KindRegex, KindRegexCompiled:
		return "/" + t.name + "/" + regexFlagSuffix(t.regexIFlag, t.regexMFlag)
	case KindAttr:
		name := t.dictAttr.Name
		return "&" + printQualifiers(t.ref) + name + printTag(t.ref) + printNum(t.ref)
	case KindAttrUndefined:
		return "&" + printQualifiers(t.ref) + t.undefinedName + printTag(t.ref) + printNum(t.ref)
	case KindList:
		return "&" + printQualifiers(t.ref) + printNum(t.ref)
	default:
		return t.name
	}
}

func quoteText(s string, q Quote) string {
	switch q {
	case QuoteSingle:
		return "'" + s + "'"
	case QuoteDouble:
		return `"` + s + `"`
	case QuoteBack:
		return "`" + s + "`"
	case QuoteInvalid:
		return quoteText(s, quoteForBareword(s))
	default:
		return s
	}
}

func printQualifiers(ref attrRef) string {
	out := ""
	if ref.RequestRef != RequestCurrent {
		out += ref.RequestRef.String() + "."
	}
	if ref.ListRef != ListRequest {
		out += ref.ListRef.String() + ":"
	}
	return out
}

func printTag(ref attrRef) string {
	if ref.Tag >= 0 {
		return ":" + strconv.Itoa(ref.Tag)
	}
	return ""
}

func printNum(ref attrRef) string {
	switch ref.Num {
	case NumAny:
		return ""
	case NumAll:
		return "[*]"
	case NumCount:
		return "[#]"
	case NumLast:
		return "[n]"
	default:
		return "[" + strconv.Itoa(ref.Num) + "]"
	}
}

func regexFlagSuffix(iflag, mflag bool) string {
	out := ""
	if iflag {
		out += "i"
	}
	if mflag {
		out += "m"
	}
	return out
}
