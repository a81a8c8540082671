package tmpl

import "fmt"

// Verify checks the structural invariants of spec.md §3/§9: that only the
// payload fields belonging to t.Kind() are populated, and that the
// qualifier body (tag/num) is within range. It is the Go replacement for
// the original engine's CHECK_ZEROED assertion — here expressed as
// exhaustive, returnable checks rather than a debug-build-only panic.
func Verify(t *Tmpl) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvariantViolated)
	}

	if err := verifyTagNum(t); err != nil {
		return err
	}

	if t.kind != KindData && t.data.Kind() != 0 {
		return fmt.Errorf("%w: %s template carries a datum", ErrInvariantViolated, t.kind)
	}
	if t.kind != KindXlatCompiled && t.xlatProgram != nil {
		return fmt.Errorf("%w: %s template carries a compiled xlat", ErrInvariantViolated, t.kind)
	}
	if t.kind != KindRegexCompiled && t.regexCompiled != nil {
		return fmt.Errorf("%w: %s template carries a compiled regex", ErrInvariantViolated, t.kind)
	}
	if t.kind != KindRegex && t.kind != KindRegexCompiled && (t.regexIFlag || t.regexMFlag) {
		return fmt.Errorf("%w: %s template carries regex flags", ErrInvariantViolated, t.kind)
	}

	switch t.kind {
	case KindNull:
		if t.dictAttr != nil || t.unknownDesc != nil || t.undefinedName != "" || t.xlatProgram != nil || t.regexCompiled != nil || t.data.Kind() != 0 {
			return fmt.Errorf("%w: null template carries payload", ErrInvariantViolated)
		}

	case KindUnparsed:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: literal template carries attribute payload", ErrInvariantViolated)
		}

	case KindXlat, KindXlatCompiled:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: xlat template carries attribute payload", ErrInvariantViolated)
		}
		if t.kind == KindXlatCompiled && t.xlatProgram == nil {
			return fmt.Errorf("%w: parsed xlat missing compiled program", ErrInvariantViolated)
		}

	case KindAttr:
		if t.dictAttr == nil {
			return fmt.Errorf("%w: attr template missing dict_attr", ErrInvariantViolated)
		}
		if t.undefinedName != "" {
			return fmt.Errorf("%w: attr template carries undefined name", ErrInvariantViolated)
		}
		if t.dictAttr.IsUnknown && t.unknownDesc != t.dictAttr {
			return fmt.Errorf("%w: unknown attribute descriptor not self-owned", ErrInvariantViolated)
		}
		if !t.dictAttr.IsUnknown && t.unknownDesc != nil {
			return fmt.Errorf("%w: known attribute carries an owned descriptor", ErrInvariantViolated)
		}

	case KindAttrUndefined:
		if t.undefinedName == "" {
			return fmt.Errorf("%w: undefined attr template missing name", ErrInvariantViolated)
		}
		if len(t.undefinedName) > undefinedNameCap {
			return fmt.Errorf("%w: undefined attr name exceeds cap", ErrNameTooLong)
		}
		if t.dictAttr != nil {
			return fmt.Errorf("%w: undefined attr template carries dict_attr", ErrInvariantViolated)
		}

	case KindList:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: list template carries attribute payload", ErrInvariantViolated)
		}
		if t.ref.Tag != TagNone {
			return fmt.Errorf("%w: list template must not carry a tag", ErrInvariantViolated)
		}

	case KindRegex, KindRegexCompiled:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: regex template carries attribute payload", ErrInvariantViolated)
		}
		if t.kind == KindRegexCompiled && t.regexCompiled == nil {
			return fmt.Errorf("%w: parsed regex missing compiled pattern", ErrInvariantViolated)
		}

	case KindExec:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: exec template carries attribute payload", ErrInvariantViolated)
		}

	case KindData:
		if t.dictAttr != nil || t.undefinedName != "" {
			return fmt.Errorf("%w: data template carries attribute payload", ErrInvariantViolated)
		}

	default:
		return fmt.Errorf("%w: unrecognized kind %d", ErrInvariantViolated, t.kind)
	}

	return nil
}

func verifyTagNum(t *Tmpl) error {
	switch t.kind {
	case KindAttr, KindAttrUndefined, KindList:
		if t.ref.Tag != TagAny && t.ref.Tag != TagNone && (t.ref.Tag < 0 || t.ref.Tag > MaxTag) {
			return fmt.Errorf("%w: tag %d out of range", ErrInvariantViolated, t.ref.Tag)
		}
		switch t.ref.Num {
		case NumAny, NumAll, NumCount, NumLast:
		default:
			if t.ref.Num < 0 || t.ref.Num > MaxNum {
				return fmt.Errorf("%w: instance selector %d out of range", ErrInvariantViolated, t.ref.Num)
			}
		}
	}
	return nil
}

// VerifyOrPanic is Verify for call sites that, per spec.md §9, treat an
// invariant violation as a programmer error rather than a recoverable
// condition (e.g. immediately after constructing a template internally,
// never after parsing caller-supplied text).
func VerifyOrPanic(t *Tmpl) {
	if err := Verify(t); err != nil {
		panic(err)
	}
}
