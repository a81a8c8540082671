package tmpl

import (
	"regexp"

	"github.com/l0p7/tmplengine/internal/datum"
	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/expr"
)

// attrRef is the common qualifier body shared by Attr, AttrUndefined, and
// List templates (spec.md §3 "Attribute-reference body").
type attrRef struct {
	RequestRef    RequestRef
	ListRef       ListRef
	Tag           int // TagAny, TagNone, or 0..31
	Num           int // NumAny, NumAll, NumCount, NumLast, or 0..1000
	AutoConverted bool
}

// undefinedNameCap bounds the AttrUndefined name buffer, matching the
// original engine's ~256 byte cap (spec.md §3). cmd/tmplctl overrides this
// via SetLimits using the configured EngineLimits.UndefinedNameCap.
var undefinedNameCap = 256

// SetLimits overrides the structural limits C2/C6/C8 enforce. It is meant to
// be called once at process startup, before any template is parsed; it is
// not safe to call concurrently with parsing or verification.
func SetLimits(nameCap, maxTag, maxNum int) {
	if nameCap > 0 {
		undefinedNameCap = nameCap
	}
	if maxTag > 0 {
		MaxTag = maxTag
	}
	if maxNum > 0 {
		MaxNum = maxNum
	}
}

// Tmpl is the tagged-union template value described by spec.md §3. Exactly
// one payload is meaningful at a time, selected by Kind; Verify checks that
// the others are left at their zero value.
type Tmpl struct {
	kind  Kind
	name  string
	quote Quote

	ref attrRef

	// Attr: dictAttr is the resolved definition. For a known attribute this
	// points at a shared dictionary entry; for Attr(unknown) it points at
	// unknownDesc, a descriptor owned by this template (spec.md §3/§9's
	// "unknown-attribute self-ownership").
	dictAttr    *dictionary.AttrDef
	unknownDesc *dictionary.AttrDef

	// AttrUndefined
	undefinedName string

	// Xlat / XlatCompiled
	xlatProgram *expr.Program

	// Regex / RegexCompiled
	regexCompiled    *regexp.Regexp
	regexIFlag       bool
	regexMFlag       bool

	// Data
	data datum.Value
}

// Kind reports the active variant.
func (t *Tmpl) Kind() Kind { return t.kind }

// Name returns the template's original name slice.
func (t *Tmpl) Name() string { return t.name }

// Quote reports the quoting token recorded for this template.
func (t *Tmpl) Quote() Quote { return t.quote }

// New stack-initialises a template over a caller-supplied name: the literal,
// un-typed constructor used before any dispatch/parse decision is made.
// It is equivalent to the original engine's "init" family: the caller is
// understood to own `name`'s backing storage for as long as the template is
// used a borrowed value (Go's GC makes this safe either way, but the
// distinction documents intent per spec.md §9's zero-copy-vs-owning note).
func New(name string, quote Quote) *Tmpl {
	t := &Tmpl{kind: KindUnparsed, name: name, quote: quote}
	if name == "" {
		t.quote = QuoteInvalid
	}
	return t
}

// Alloc behaves like New but documents that the name is a private copy
// (e.g. read from a config file the caller will discard) rather than a
// borrow — see spec.md §4.3 "Allocate".
func Alloc(name string, quote Quote) *Tmpl {
	cp := make([]byte, len(name))
	copy(cp, name)
	return New(string(cp), quote)
}

// NewFromAttr constructs an Attr template directly from a resolved
// dictionary attribute, per spec.md §4.3 "From dictionary attribute": the
// canonical internal name is "internal", tag/instance are explicit.
func NewFromAttr(def dictionary.AttrDef, requestRef RequestRef, listRef ListRef, tag, num int) *Tmpl {
	d := def
	return &Tmpl{
		kind:     KindAttr,
		name:     "internal",
		quote:    QuoteBare,
		dictAttr: &d,
		ref: attrRef{
			RequestRef: requestRef,
			ListRef:    listRef,
			Tag:        tag,
			Num:        num,
		},
	}
}

// NewFromDatum constructs a Data template from a typed value, per spec.md
// §4.3 "From typed datum". The name becomes the pretty-printed form of the
// datum, and quote is chosen the way the string dispatcher would quote that
// printed form (bareword unless it needs escaping).
func NewFromDatum(v datum.Value) (*Tmpl, error) {
	if v.Kind() == datum.TLV {
		return nil, ErrWrongKind
	}
	printed := v.String()
	return &Tmpl{
		kind:  KindData,
		name:  printed,
		quote: quoteForBareword(printed),
		data:  v,
	}, nil
}

// NewNull returns the sentinel Null template.
func NewNull() *Tmpl {
	return &Tmpl{kind: KindNull, quote: QuoteInvalid}
}

// NewList constructs a List template (a reference to an entire attribute
// list, with no dict_attr — spec.md §3's "For List, no dict_attr is
// stored").
func NewList(name string, quote Quote, requestRef RequestRef, listRef ListRef, num int) *Tmpl {
	return &Tmpl{
		kind:  KindList,
		name:  name,
		quote: quote,
		ref: attrRef{
			RequestRef: requestRef,
			ListRef:    listRef,
			Tag:        TagNone,
			Num:        num,
		},
	}
}

// AttrRefFields exposes the common qualifier body for Attr/AttrUndefined/List
// templates. Calling it on any other kind returns the zero value.
func (t *Tmpl) AttrRefFields() (requestRef RequestRef, listRef ListRef, tag, num int, autoConverted bool) {
	return t.ref.RequestRef, t.ref.ListRef, t.ref.Tag, t.ref.Num, t.ref.AutoConverted
}

// DictAttr returns the resolved attribute definition for an Attr template,
// or nil for any other kind / an undefined reference.
func (t *Tmpl) DictAttr() *dictionary.AttrDef { return t.dictAttr }

// UndefinedName returns the captured literal name for an AttrUndefined
// template.
func (t *Tmpl) UndefinedName() string { return t.undefinedName }

// Data returns the immediate datum for a Data template.
func (t *Tmpl) Data() datum.Value { return t.data }

// RegexFlags returns the case-insensitive/multi-line flags for Regex and
// RegexCompiled templates.
func (t *Tmpl) RegexFlags() (iflag, mflag bool) { return t.regexIFlag, t.regexMFlag }

func quoteForBareword(s string) Quote {
	if s == "" {
		return QuoteSingle
	}
	for i := 0; i < len(s); i++ {
		if !dictionary.IsDictChar(s[i]) {
			return QuoteDouble
		}
	}
	return QuoteBare
}
