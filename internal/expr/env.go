// Package expr compiles and evaluates the CEL/template expressions embedded
// in Xlat templates (spec.md §3/§5's "xlat expander" collaborator): a
// double-quoted template whose text contains '%' is split into literal runs
// and "%{...}" expression runs, each evaluated against the attributes the
// resolver callback exposes.
package expr

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// Environment builds and compiles CEL programs against a single "attr" map
// variable — the attribute-lookup surface an xlat expression sees. Multiple
// Environments can coexist (tests build throwaway ones), but Compile uses a
// lazily-built package default.
type Environment struct {
	env *cel.Env
}

// NewEnvironment declares the CEL surface available to xlat expressions:
// an "attr" map of attribute name to string value, and a null-safe "lookup"
// helper for optional attributes.
func NewEnvironment() (*Environment, error) {
	env, err := cel.NewEnv(
		cel.Variable("attr", cel.MapType(cel.StringType, cel.DynType)),
		cel.Function("lookup",
			cel.Overload("lookup_map_string",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType},
				cel.DynType,
				cel.BinaryBinding(lookupMapValue),
			),
		),
		cel.HomogeneousAggregateLiterals(),
	)
	if err != nil {
		return nil, fmt.Errorf("expr: build environment: %w", err)
	}
	return &Environment{env: env}, nil
}

// celProgram wraps a compiled CEL program yielding an arbitrary value; it is
// the building block Program (in hybrid.go) composes per expression segment.
type celProgram struct {
	source  string
	program cel.Program
}

// compileValue compiles expression without constraining its output type,
// since xlat segments are stringified regardless of the CEL value's type.
func (e *Environment) compileValue(expression string) (celProgram, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return celProgram{}, fmt.Errorf("expr: expression required")
	}
	ast, issues := e.env.Compile(trimmed)
	if issues != nil && issues.Err() != nil {
		return celProgram{}, fmt.Errorf("expr: compile %q: %w", trimmed, issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return celProgram{}, fmt.Errorf("expr: program %q: %w", trimmed, err)
	}
	return celProgram{source: trimmed, program: program}, nil
}

func (p celProgram) eval(vars map[string]any) (any, error) {
	if p.program == nil {
		return nil, fmt.Errorf("expr: program not initialized")
	}
	val, _, err := p.program.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("expr: eval %q: %w", p.source, err)
	}
	return val.Value(), nil
}

func lookupMapValue(mapVal ref.Val, key ref.Val) ref.Val {
	mapper, ok := mapVal.(traits.Mapper)
	if !ok {
		return types.NewErr("expr: lookup only supports string-key maps")
	}
	value, found := mapper.Find(key)
	if !found {
		return types.NullValue
	}
	if value == nil {
		return types.NullValue
	}
	return value
}
