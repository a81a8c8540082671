package tmpl

import "regexp"

// CompileRegex compiles a Regex template's pattern (honoring its i/m flags)
// into a *regexp.Regexp, memoizing the result via DefaultHandleCache and
// transitioning the template to KindRegexCompiled, per spec.md §3's
// Regex/RegexCompiled pair.
func CompileRegex(t *Tmpl) (*regexp.Regexp, error) {
	if t.kind != KindRegex && t.kind != KindRegexCompiled {
		return nil, ErrWrongKind
	}
	if t.regexCompiled != nil {
		return t.regexCompiled, nil
	}
	if cached, ok := DefaultHandleCache.GetRegex(t.name, t.regexIFlag, t.regexMFlag); ok {
		t.regexCompiled = cached
		t.kind = KindRegexCompiled
		return cached, nil
	}
	pattern := t.name
	if t.regexIFlag && t.regexMFlag {
		pattern = "(?im)" + pattern
	} else if t.regexIFlag {
		pattern = "(?i)" + pattern
	} else if t.regexMFlag {
		pattern = "(?m)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	DefaultHandleCache.PutRegex(t.name, t.regexIFlag, t.regexMFlag, re)
	t.regexCompiled = re
	t.kind = KindRegexCompiled
	return re, nil
}

// MatchRegex compiles (if needed) and runs a Regex/RegexCompiled template
// against subject, returning whether it matched and any capture groups.
func MatchRegex(t *Tmpl, subject string) (matched bool, groups []string, err error) {
	re, err := CompileRegex(t)
	if err != nil {
		return false, nil, err
	}
	m := re.FindStringSubmatch(subject)
	if m == nil {
		return false, nil, nil
	}
	return true, m, nil
}
