package tmpl

import "testing"

func TestPrintNull(t *testing.T) {
	if got := Print(NewNull()); got != "" {
		t.Fatalf("Print(Null) = %q, want \"\"", got)
	}
}

func TestPrintLiteralQuoting(t *testing.T) {
	cases := []struct {
		quote Quote
		want  string
	}{
		{QuoteBare, "hello"},
		{QuoteSingle, "'hello'"},
		{QuoteDouble, `"hello"`},
		{QuoteBack, "`hello`"},
	}
	for _, tc := range cases {
		tm := New("hello", tc.quote)
		if got := Print(tm); got != tc.want {
			t.Errorf("Print(%v) = %q, want %q", tc.quote, got, tc.want)
		}
	}
}

func TestPrintPlainAttr(t *testing.T) {
	dict := testDictionary()
	tm, err := ParseAttrFull(dict, "User-Name", RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("ParseAttrFull: %v", err)
	}
	if got := Print(tm); got != "&User-Name" {
		t.Fatalf("Print = %q, want %q", got, "&User-Name")
	}
}

func TestPrintAttrWithQualifiersTagAndIndex(t *testing.T) {
	dict := testDictionary()
	tm, err := ParseAttrFull(dict, "&outer.reply:Tunnel-Password:3[1]", RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("ParseAttrFull: %v", err)
	}
	want := "&outer.reply:Tunnel-Password:3[1]"
	if got := Print(tm); got != want {
		t.Fatalf("Print = %q, want %q", got, want)
	}
}

func TestPrintAttrOmitsDefaultQualifiers(t *testing.T) {
	dict := testDictionary()
	tm, err := ParseAttrFull(dict, "&current.request:User-Name", RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("ParseAttrFull: %v", err)
	}
	if got := Print(tm); got != "&User-Name" {
		t.Fatalf("Print = %q, want default qualifiers omitted (%q)", got, "&User-Name")
	}
}

func TestPrintListNumSelectors(t *testing.T) {
	cases := []struct {
		num  int
		want string
	}{
		{NumAny, "&"},
		{NumAll, "&[*]"},
		{NumCount, "&[#]"},
		{NumLast, "&[n]"},
		{5, "&[5]"},
	}
	for _, tc := range cases {
		tm := NewList("request", QuoteBare, RequestCurrent, ListRequest, tc.num)
		if got := Print(tm); got != tc.want {
			t.Errorf("Print(List num=%d) = %q, want %q", tc.num, got, tc.want)
		}
	}
}

func TestPrintXlatDoubleQuoted(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "hi %{attr[\"User-Name\"]}", QuoteDouble, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	want := `"hi %{attr["User-Name"]}"`
	if got := Print(tm); got != want {
		t.Fatalf("Print = %q, want %q", got, want)
	}
}

func TestPrintExecBacktickQuoted(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "/bin/echo hi", QuoteBack, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if got := Print(tm); got != "`/bin/echo hi`" {
		t.Fatalf("Print = %q", got)
	}
}

func TestPrintRegexWithFlags(t *testing.T) {
	dict := testDictionary()
	tm, err := FromString(dict, "^abc$im", QuoteRegex, RequestCurrent, ListRequest, false, false)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if got := Print(tm); got != "/^abc$/im" {
		t.Fatalf("Print = %q, want %q", got, "/^abc$/im")
	}
}
