package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	o := New()
	if o.DanglingReferencePolicy != StrictDanglingReference {
		t.Errorf("default policy = %v, want StrictDanglingReference", o.DanglingReferencePolicy)
	}
	if o.MaxIKIterationsHint != 0 {
		t.Errorf("default MaxIKIterationsHint = %d, want 0", o.MaxIKIterationsHint)
	}
	if o.Allocate == nil {
		t.Fatal("default Allocate should not be nil")
	}
	if b, err := o.Allocate(4); err != nil || len(b) != 4 {
		t.Errorf("default Allocate(4) = %v, %v", b, err)
	}
}

func TestAttrsApply(t *testing.T) {
	o := New(MaxIKIterations(5), OnDanglingReference(ClampDanglingReference))
	if o.MaxIKIterationsHint != 5 {
		t.Errorf("MaxIKIterationsHint = %d, want 5", o.MaxIKIterationsHint)
	}
	if o.DanglingReferencePolicy != ClampDanglingReference {
		t.Errorf("policy = %v, want ClampDanglingReference", o.DanglingReferencePolicy)
	}
}

func TestMaxIKIterationsIgnoresNonPositive(t *testing.T) {
	o := New(MaxIKIterations(0), MaxIKIterations(-3))
	if o.MaxIKIterationsHint != 0 {
		t.Errorf("MaxIKIterationsHint = %d, want 0 (non-positive ignored)", o.MaxIKIterationsHint)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opts.yaml")
	content := "maxIKIterationsHint: 12\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	o, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if o.MaxIKIterationsHint != 12 {
		t.Errorf("MaxIKIterationsHint = %d, want 12", o.MaxIKIterationsHint)
	}
	if o.Allocate == nil {
		t.Error("Allocate should default even when loaded from file")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
