// Package dictionary is the attribute dictionary collaborator the template
// engine treats as external per spec.md §1: name→definition lookup, OID
// decoding, unknown-attribute fabrication, and add-to-dictionary support.
//
// The dictionary is read-mostly, module-scoped, mutable state (spec.md §5):
// lookups take a read lock, and Define (used by DefineUnknown/
// DefineUndefined in the cast engine) takes the writer lock for the brief
// insertion.
package dictionary

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/l0p7/tmplengine/internal/datum"
)

// AttrDef describes a known attribute: its canonical name, its numeric OID
// path, its datum type, and the tag/unknown flags the parser and verifier
// consult.
type AttrDef struct {
	Name      string
	OID       []int
	Type      datum.Kind
	HasTag    bool
	IsUnknown bool
}

// OIDString renders the OID path in "Attr-n.n.n" form.
func (d AttrDef) OIDString() string {
	parts := make([]string, len(d.OID))
	for i, n := range d.OID {
		parts[i] = strconv.Itoa(n)
	}
	return "Attr-" + strings.Join(parts, ".")
}

// Dictionary is a thread-safe attribute dictionary. The zero value is not
// usable; construct with New.
type Dictionary struct {
	mu     sync.RWMutex
	byName map[string]AttrDef
	byOID  string2oid
}

type string2oid = map[string]AttrDef

// New returns an empty, ready-to-use dictionary.
func New() *Dictionary {
	return &Dictionary{
		byName: make(map[string]AttrDef),
		byOID:  make(string2oid),
	}
}

// Lookup finds a known attribute by name.
func (d *Dictionary) Lookup(name string) (AttrDef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.byName[name]
	return def, ok
}

// ParseOID parses an "Attr-1.2.3.4" style name into its numeric path. It
// returns ok=false if name does not look like an OID form at all (not an
// error — the caller falls through to unknown/undefined handling).
func ParseOID(name string) (oid []int, ok bool) {
	const prefix = "Attr-"
	if !strings.HasPrefix(name, prefix) {
		return nil, false
	}
	rest := strings.TrimPrefix(name, prefix)
	if rest == "" {
		return nil, false
	}
	parts := strings.Split(rest, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// LookupOID resolves an OID path to a known attribute, if the dictionary has
// one registered under that exact path. This backs the parser's "auto
// convert OID to named form" behavior (spec.md §9).
func (d *Dictionary) LookupOID(oid []int) (AttrDef, bool) {
	key := oidKey(oid)
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.byOID[key]
	return def, ok
}

func oidKey(oid []int) string {
	parts := make([]string, len(oid))
	for i, n := range oid {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Define inserts a known attribute definition. If name is already bound, the
// existing entry is kept unchanged: Define returns nil when it has the same
// type and tag flag, and an error when it is incompatible (different type or
// tag flag), matching
// DefineUndefined's TypeMismatch contract in spec.md §4.7/§7.
func (d *Dictionary) Define(def AttrDef) error {
	if def.Name == "" {
		return fmt.Errorf("dictionary: define: name required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.byName[def.Name]; ok {
		if existing.Type != def.Type || existing.HasTag != def.HasTag {
			return fmt.Errorf("dictionary: define %q: incompatible with existing definition (type %s/%s, hasTag %v/%v)",
				def.Name, existing.Type, def.Type, existing.HasTag, def.HasTag)
		}
		return nil
	}
	d.byName[def.Name] = def
	if len(def.OID) > 0 {
		d.byOID[oidKey(def.OID)] = def
	}
	return nil
}

// Snapshot returns a point-in-time copy of every known definition, used by
// the loader to compare reloaded bundles and by tests.
func (d *Dictionary) Snapshot() []AttrDef {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]AttrDef, 0, len(d.byName))
	for _, def := range d.byName {
		out = append(out, def)
	}
	return out
}

// IsDictChar reports whether b is a byte the lexer and parser treat as part
// of a bareword/attribute-name/list-name token: alphanumerics, '-' and '_'.
// This is the "dictionary-allowed chars" predicate referenced throughout
// spec.md §4.
func IsDictChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_':
		return true
	default:
		return false
	}
}
