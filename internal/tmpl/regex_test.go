package tmpl

import "testing"

func TestCompileRegexRejectsNonRegexKind(t *testing.T) {
	tm := NewNull()
	if _, err := CompileRegex(tm); err != ErrWrongKind {
		t.Fatalf("err = %v, want ErrWrongKind", err)
	}
}

func TestCompileRegexAndMatch(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "^ab+c$", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	matched, groups, err := MatchRegex(tm, "abbbc")
	if err != nil {
		t.Fatalf("MatchRegex: %v", err)
	}
	if !matched || len(groups) != 1 || groups[0] != "abbbc" {
		t.Fatalf("MatchRegex = %v %v", matched, groups)
	}
	if tm.Kind() != KindRegexCompiled {
		t.Fatalf("Kind() after match = %v, want KindRegexCompiled", tm.Kind())
	}
}

func TestCompileRegexCaseInsensitiveFlag(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "^ABC$i", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	matched, _, err := MatchRegex(tm, "abc")
	if err != nil {
		t.Fatalf("MatchRegex: %v", err)
	}
	if !matched {
		t.Fatal("expected case-insensitive match")
	}
}

func TestCompileRegexNoMatchReturnsFalse(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "^zzz$", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	matched, groups, err := MatchRegex(tm, "abc")
	if err != nil {
		t.Fatalf("MatchRegex: %v", err)
	}
	if matched || groups != nil {
		t.Fatalf("MatchRegex = %v %v, want no match", matched, groups)
	}
}

func TestCompileRegexMemoizesCompiledPattern(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "^x$", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	re1, err := CompileRegex(tm)
	if err != nil {
		t.Fatalf("CompileRegex: %v", err)
	}
	re2, err := CompileRegex(tm)
	if err != nil {
		t.Fatalf("CompileRegex (second call): %v", err)
	}
	if re1 != re2 {
		t.Fatal("second CompileRegex call should return the cached *regexp.Regexp")
	}
}

func TestCompileRegexInvalidPatternFails(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "(unterminated", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if _, err := CompileRegex(tm); err == nil {
		t.Fatal("expected a compile error for an invalid regex pattern")
	}
}
