package dictionary

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/l0p7/tmplengine/internal/datum"
)

// Skip records a definition the loader intentionally quarantined, e.g. a
// duplicate attribute name across dictionary files.
type Skip struct {
	Name    string
	Reason  string
	Sources []string
}

// Bundle is the merged set of attribute definitions after loading every
// configured source.
type Bundle struct {
	Definitions []AttrDef
	Sources     []string
	Skipped     []Skip
}

// rawAttr is the on-disk shape of one attribute definition entry.
type rawAttr struct {
	Name   string `koanf:"name"`
	OID    string `koanf:"oid"`
	Type   string `koanf:"type"`
	HasTag bool   `koanf:"hasTag"`
}

type rawDocument struct {
	Attributes []rawAttr `koanf:"attributes"`
}

type aggregator struct {
	defs    map[string]AttrDef
	sources map[string]string
	skips   map[string]*Skip
	seen    map[string]struct{}
}

func newAggregator() *aggregator {
	return &aggregator{
		defs:    make(map[string]AttrDef),
		sources: make(map[string]string),
		skips:   make(map[string]*Skip),
		seen:    make(map[string]struct{}),
	}
}

func (a *aggregator) add(def AttrDef, source string) {
	a.seen[source] = struct{}{}
	if existing, ok := a.skips[def.Name]; ok {
		existing.Sources = appendUnique(existing.Sources, source)
		return
	}
	if prev, ok := a.sources[def.Name]; ok {
		a.recordSkip(def.Name, "duplicate definition", prev, source)
		delete(a.sources, def.Name)
		delete(a.defs, def.Name)
		return
	}
	a.sources[def.Name] = source
	a.defs[def.Name] = def
}

func (a *aggregator) recordSkip(name, reason string, sources ...string) {
	skip, ok := a.skips[name]
	if !ok {
		skip = &Skip{Name: name, Reason: reason}
		a.skips[name] = skip
	}
	for _, src := range sources {
		skip.Sources = appendUnique(skip.Sources, src)
	}
}

func (a *aggregator) bundle() Bundle {
	defs := make([]AttrDef, 0, len(a.defs))
	for _, d := range a.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	skipped := make([]Skip, 0, len(a.skips))
	for _, s := range a.skips {
		sort.Strings(s.Sources)
		skipped = append(skipped, *s)
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Name < skipped[j].Name })

	sources := make([]string, 0, len(a.seen))
	for src := range a.seen {
		if src != "" {
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)
	return Bundle{Definitions: defs, Sources: sources, Skipped: skipped}
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func kindFromString(s string) (datum.Kind, error) {
	switch strings.ToLower(s) {
	case "string":
		return datum.String, nil
	case "octets":
		return datum.Octets, nil
	case "integer":
		return datum.Integer, nil
	case "integer64":
		return datum.Integer64, nil
	case "boolean":
		return datum.Boolean, nil
	case "ipaddr":
		return datum.IPAddr, nil
	case "date":
		return datum.Date, nil
	default:
		return datum.Invalid, fmt.Errorf("dictionary: unknown attribute type %q", s)
	}
}

func parseRawAttr(raw rawAttr, source string) (AttrDef, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return AttrDef{}, fmt.Errorf("dictionary: %s: attribute name required", source)
	}
	kind, err := kindFromString(raw.Type)
	if err != nil {
		return AttrDef{}, fmt.Errorf("dictionary: %s: %w", source, err)
	}
	def := AttrDef{Name: raw.Name, Type: kind, HasTag: raw.HasTag}
	if raw.OID != "" {
		oid, ok := ParseOID("Attr-" + raw.OID)
		if !ok {
			return AttrDef{}, fmt.Errorf("dictionary: %s: invalid oid %q for attribute %q", source, raw.OID, raw.Name)
		}
		def.OID = oid
	}
	return def, nil
}

// LoadFile loads one dictionary definition file (yaml/json/toml).
func LoadFile(path string) ([]AttrDef, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	defs := make([]AttrDef, 0, len(doc.Attributes))
	for _, raw := range doc.Attributes {
		def, err := parseRawAttr(raw, path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadSources walks a file or folder of dictionary definitions, aggregating
// them with duplicate-name detection; each duplicate is recorded in the
// returned Bundle's Skipped list with every source that defined it.
func LoadSources(file, folder string) (Bundle, error) {
	files, err := collectSources(file, folder)
	if err != nil {
		return Bundle{}, err
	}
	agg := newAggregator()
	for _, path := range files {
		doc, err := loadDocument(path)
		if err != nil {
			return Bundle{}, err
		}
		for _, raw := range doc.Attributes {
			def, err := parseRawAttr(raw, path)
			if err != nil {
				return Bundle{}, err
			}
			agg.add(def, path)
		}
	}
	return agg.bundle(), nil
}

func loadDocument(path string) (rawDocument, error) {
	parser, err := parserFor(path)
	if err != nil {
		return rawDocument{}, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return rawDocument{}, fmt.Errorf("dictionary: load %s: %w", path, err)
	}
	var doc rawDocument
	if err := k.Unmarshal("", &doc); err != nil {
		return rawDocument{}, fmt.Errorf("dictionary: decode %s: %w", path, err)
	}
	return doc, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	case ".toml", ".tml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("dictionary: unsupported file extension %s", path)
	}
}

func collectSources(file, folder string) ([]string, error) {
	if file != "" {
		info, err := os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("dictionary: file %s: %w", file, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("dictionary: file %s: expected a file, found a directory", file)
		}
		return []string{file}, nil
	}
	if folder == "" {
		return nil, nil
	}
	stat, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("dictionary: folder %s: %w", folder, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("dictionary: folder %s is not a directory", folder)
	}
	var files []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, err := parserFor(path); err != nil {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary: walk folder %s: %w", folder, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load installs every definition in bundle into d via Define, returning the
// first incompatibility error encountered (callers typically run this
// against a freshly-built Dictionary so incompatibilities should not occur).
func (d *Dictionary) Load(bundle Bundle) error {
	for _, def := range bundle.Definitions {
		if err := d.Define(def); err != nil {
			return err
		}
	}
	return nil
}
