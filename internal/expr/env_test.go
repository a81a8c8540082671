package expr

import "testing"

func TestEnvironmentCompileValueAndEval(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	prog, err := env.compileValue(`attr["User-Name"] + "-suffix"`)
	if err != nil {
		t.Fatalf("compileValue: %v", err)
	}
	out, err := prog.eval(map[string]any{"attr": map[string]any{"User-Name": "bob"}})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out != "bob-suffix" {
		t.Fatalf("eval = %v, want %q", out, "bob-suffix")
	}
}

func TestEnvironmentCompileValueRejectsEmpty(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	if _, err := env.compileValue("   "); err == nil {
		t.Fatal("expected error for empty expression")
	}
}

func TestLookupMapValueMissingKey(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	prog, err := env.compileValue(`lookup(attr, "Missing")`)
	if err != nil {
		t.Fatalf("compileValue: %v", err)
	}
	out, err := prog.eval(map[string]any{"attr": map[string]any{"User-Name": "bob"}})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out != nil {
		t.Fatalf("eval = %v, want nil", out)
	}
}
