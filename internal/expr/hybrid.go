package expr

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/l0p7/tmplengine/internal/templates"
)

// defaultEnv/defaultRenderer are built once and reused by the package-level
// Compile entry point; tests that need isolation construct their own
// Environment/Renderer pair directly instead.
var (
	defaultEnvOnce  sync.Once
	defaultEnv      *Environment
	defaultEnvErr   error
	defaultRenderer = templates.NewRenderer(nil)
)

func getDefaultEnv() (*Environment, error) {
	defaultEnvOnce.Do(func() {
		defaultEnv, defaultEnvErr = NewEnvironment()
	})
	return defaultEnv, defaultEnvErr
}

// attrRefPattern is a best-effort scan for attribute-name references inside
// an expression segment, recognizing both the CEL index form (attr["Name"])
// and the Go template index form (index .attr "Name"). It is intentionally
// loose rather than a full parser: any quoted string immediately preceded by
// the "attr" token is treated as a referenced attribute name, which is all
// Eval needs to know which names to resolve before invoking CEL/template
// execution.
var attrRefPattern = regexp.MustCompile(`attr\W*["']([^"']+)["']`)

// segment is one literal run or one "%{...}" expression run of an xlat
// source string.
type segment struct {
	literal   string
	isExpr    bool
	cel       celProgram
	attrNames []string
}

// Program is a compiled xlat expression, spec.md §4.4/§5's XlatCompiled
// payload: a sequence of literal and expression segments, each expression
// either a CEL program or (when the whole source contains "{{") a single Go
// template covering the entire source — matching the HybridEvaluator
// convention of choosing the engine by presence of "{{".
type Program struct {
	source   string
	tmpl     *templates.Template
	tmplRefs []string
	segments []segment
}

// Compile parses source into a Program using the package's default
// CEL environment and template renderer.
func Compile(source string) (*Program, error) {
	env, err := getDefaultEnv()
	if err != nil {
		return nil, err
	}
	return compileWith(env, defaultRenderer, source)
}

func compileWith(env *Environment, renderer *templates.Renderer, source string) (*Program, error) {
	if strings.Contains(source, "{{") {
		tmpl, err := renderer.CompileInline("xlat", source)
		if err != nil {
			return nil, fmt.Errorf("expr: compile template %q: %w", source, err)
		}
		return &Program{source: source, tmpl: tmpl, tmplRefs: extractAttrNames(source)}, nil
	}

	segs, err := splitXlatSegments(env, source)
	if err != nil {
		return nil, err
	}
	return &Program{source: source, segments: segs}, nil
}

// splitXlatSegments scans source for "%{...}" runs, compiling each as a CEL
// expression and leaving everything else as literal text.
func splitXlatSegments(env *Environment, source string) ([]segment, error) {
	var segs []segment
	i := 0
	for i < len(source) {
		start := strings.Index(source[i:], "%{")
		if start < 0 {
			segs = append(segs, segment{literal: source[i:]})
			break
		}
		start += i
		if start > i {
			segs = append(segs, segment{literal: source[i:start]})
		}
		end := strings.Index(source[start:], "}")
		if end < 0 {
			return nil, fmt.Errorf("expr: unterminated %%{ in %q", source)
		}
		end += start
		exprSrc := source[start+2 : end]
		prog, err := env.compileValue(exprSrc)
		if err != nil {
			return nil, err
		}
		segs = append(segs, segment{isExpr: true, cel: prog, attrNames: extractAttrNames(exprSrc)})
		i = end + 1
	}
	return segs, nil
}

func extractAttrNames(s string) []string {
	matches := attrRefPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Eval renders the program to a string, calling resolve for every attribute
// name the expression references. resolve returning ok=false leaves that
// name absent from the "attr" map, which surfaces as a CEL/template error if
// the expression actually dereferences it.
func (p *Program) Eval(resolve func(name string) (string, bool)) (string, error) {
	if p.tmpl != nil {
		data := map[string]any{"attr": buildAttrMap(p.tmplRefs, resolve)}
		return p.tmpl.Render(data)
	}

	var b strings.Builder
	for _, seg := range p.segments {
		if !seg.isExpr {
			b.WriteString(seg.literal)
			continue
		}
		vars := map[string]any{"attr": buildAttrMap(seg.attrNames, resolve)}
		val, err := seg.cel.eval(vars)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprint(val))
	}
	return b.String(), nil
}

func buildAttrMap(names []string, resolve func(name string) (string, bool)) map[string]any {
	m := make(map[string]any, len(names))
	for _, n := range names {
		if v, ok := resolve(n); ok {
			m[n] = v
		}
	}
	return m
}

// Source returns the original xlat text, for logging.
func (p *Program) Source() string { return p.source }
