package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSetupKeepsDefaultsOnEmptyAnswers(t *testing.T) {
	var out bytes.Buffer
	got, err := RunSetup(strings.NewReader("\n\n\n\n\n\n"), &out, Defaults())
	if err != nil {
		t.Fatal(err)
	}
	want := Defaults()
	if got.DefaultFormat != want.DefaultFormat || got.MaxDiffLines != want.MaxDiffLines ||
		got.PollInterval != want.PollInterval || got.GitBinary != want.GitBinary {
		t.Errorf("RunSetup() = %+v, want defaults", got)
	}
	if !strings.Contains(out.String(), "[markdown]") {
		t.Errorf("prompt does not show the current value:\n%s", out.String())
	}
}

func TestRunSetupAppliesAnswers(t *testing.T) {
	in := "JSON\nnotes\n40\n500\n10s\n/usr/bin/git\n"
	got, err := RunSetup(strings.NewReader(in), &bytes.Buffer{}, Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if got.DefaultFormat != "json" || got.OutputDir != "notes" || got.MaxDiffLines != 40 ||
		got.DebounceMillis != 500 || got.PollInterval != "10s" || got.GitBinary != "/usr/bin/git" {
		t.Errorf("RunSetup() = %+v", got)
	}
}

func TestRunSetupRejectsInvalidAnswers(t *testing.T) {
	var out bytes.Buffer
	in := "yaml\n\n-3\nsoon\nlater\n"
	got, err := RunSetup(strings.NewReader(in), &out, Defaults())
	if err != nil {
		t.Fatal(err)
	}
	d := Defaults()
	if got.DefaultFormat != d.DefaultFormat || got.MaxDiffLines != d.MaxDiffLines ||
		got.DebounceMillis != d.DebounceMillis || got.PollInterval != d.PollInterval {
		t.Errorf("invalid answers changed config: %+v", got)
	}
	for _, want := range []string{`unknown format "yaml"`, `"-3" is not a positive number`, `"later" is not a duration`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSaveThenLoadProject(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.IgnorePatterns = []string{"*.log"}
	cfg.MaxDiffLines = 7
	if err := Save(filepath.Join(dir, ".sessiondiffconfig"), cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadProject(dir)
	if err != nil || loaded == nil {
		t.Fatalf("LoadProject() = %v, %v", loaded, err)
	}
	if loaded.MaxDiffLines != 7 || len(loaded.IgnorePatterns) != 1 {
		t.Errorf("loaded %+v", loaded)
	}
}
