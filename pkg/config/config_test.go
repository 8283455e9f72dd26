package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	path := writeConfig(t, "name: ${SAMPLE_NAME}\ncount: 2\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Count != 2 {
		t.Errorf("loaded %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeConfig(t, "count: -1\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadIfExists_MissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Count: 1}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	bad := sample{Count: -1}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Fatal("defaults should still be validated")
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("EXPAND_SET", "value")
	t.Setenv("EXPAND_EMPTY", "")

	cases := map[string]string{
		"${EXPAND_SET}":             "value",
		"$EXPAND_SET/x":             "value/x",
		"${EXPAND_SET:-other}":      "value",
		"${EXPAND_EMPTY:-fallback}": "fallback",
		"${EXPAND_UNSET_VAR:-8080}": "8080",
		"${EXPAND_UNSET_VAR}":       "",
	}
	for in, want := range cases {
		if got := Expand(in); got != want {
			t.Errorf("Expand(%q) = %q, want %q", in, got, want)
		}
	}
}
