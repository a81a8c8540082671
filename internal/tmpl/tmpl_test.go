package tmpl

import (
	"testing"

	"github.com/l0p7/tmplengine/internal/datum"
)

func TestNewSetsUnparsedKind(t *testing.T) {
	tm := New("hello", QuoteBare)
	if tm.Kind() != KindUnparsed {
		t.Fatalf("Kind() = %v, want KindUnparsed", tm.Kind())
	}
	if tm.Name() != "hello" {
		t.Fatalf("Name() = %q", tm.Name())
	}
}

func TestNewEmptyNameForcesInvalidQuote(t *testing.T) {
	tm := New("", QuoteBare)
	if tm.Quote() != QuoteInvalid {
		t.Fatalf("Quote() = %v, want QuoteInvalid for empty name", tm.Quote())
	}
}

func TestAllocCopiesBackingArray(t *testing.T) {
	src := []byte("mutable")
	tm := Alloc(string(src), QuoteBare)
	src[0] = 'X'
	if tm.Name() != "mutable" {
		t.Fatalf("Alloc template observed caller mutation: Name() = %q", tm.Name())
	}
}

func TestNewFromAttr(t *testing.T) {
	def, ok := testDictionary().Lookup("User-Name")
	if !ok {
		t.Fatal("test dictionary missing User-Name")
	}
	tm := NewFromAttr(def, RequestCurrent, ListRequest, TagAny, NumAny)
	if tm.Kind() != KindAttr {
		t.Fatalf("Kind() = %v, want KindAttr", tm.Kind())
	}
	if tm.DictAttr() == nil || tm.DictAttr().Name != "User-Name" {
		t.Fatalf("DictAttr() = %v", tm.DictAttr())
	}
	reqRef, listRef, tag, num, auto := tm.AttrRefFields()
	if reqRef != RequestCurrent || listRef != ListRequest || tag != TagAny || num != NumAny || auto {
		t.Fatalf("AttrRefFields() = %v %v %v %v %v", reqRef, listRef, tag, num, auto)
	}
}

func TestNewFromDatumChoosesQuote(t *testing.T) {
	v, err := datum.New(datum.String, "has space")
	if err != nil {
		t.Fatalf("datum.New: %v", err)
	}
	tm, err := NewFromDatum(v)
	if err != nil {
		t.Fatalf("NewFromDatum: %v", err)
	}
	if tm.Quote() != QuoteDouble {
		t.Fatalf("Quote() = %v, want QuoteDouble for a value with a space", tm.Quote())
	}

	v2, _ := datum.New(datum.String, "bareword")
	tm2, err := NewFromDatum(v2)
	if err != nil {
		t.Fatalf("NewFromDatum: %v", err)
	}
	if tm2.Quote() != QuoteBare {
		t.Fatalf("Quote() = %v, want QuoteBare for a dictionary-safe value", tm2.Quote())
	}
}

func TestNewNull(t *testing.T) {
	tm := NewNull()
	if tm.Kind() != KindNull {
		t.Fatalf("Kind() = %v, want KindNull", tm.Kind())
	}
}

func TestNewList(t *testing.T) {
	tm := NewList("request", QuoteBare, RequestCurrent, ListRequest, NumAll)
	if tm.Kind() != KindList {
		t.Fatalf("Kind() = %v, want KindList", tm.Kind())
	}
	_, _, tag, num, _ := tm.AttrRefFields()
	if tag != TagNone {
		t.Fatalf("List template tag = %v, want TagNone", tag)
	}
	if num != NumAll {
		t.Fatalf("List template num = %v, want NumAll", num)
	}
}
