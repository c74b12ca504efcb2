package title

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

const demoProject = `
title: Demo Story
startScene: intro
scenes:
  intro: scenes/intro.yaml
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func embeddedTitles() fstest.MapFS {
	return fstest.MapFS{
		"titles/beta/project.yaml":  {Data: []byte(demoProject)},
		"titles/alpha/project.yaml": {Data: []byte("title: Alpha\nstartScene: a\nscenes:\n  a: a.yaml\n")},
		"titles/broken/readme.txt":  {Data: []byte("no project here")},
		"titles/notes.txt":          {Data: []byte("not a directory")},
	}
}

func TestNewRegistryEmbedded(t *testing.T) {
	r := NewRegistry(embeddedTitles(), WithLogger(quietLogger()))
	titles := r.Available()

	if len(titles) != 2 {
		t.Fatalf("expected 2 embedded titles, got %d", len(titles))
	}
	if titles[0].Name != "alpha" || titles[1].Name != "beta" {
		t.Errorf("titles not sorted: %q, %q", titles[0].Name, titles[1].Name)
	}
	if !titles[1].IsEmbedded || titles[1].Path != "titles/beta" {
		t.Errorf("unexpected title %+v", titles[1])
	}
	if titles[1].DisplayName() != "Demo Story" {
		t.Errorf("DisplayName() = %q", titles[1].DisplayName())
	}
	if !titles[1].FS.Exists("project.yaml") {
		t.Error("title FS should be rooted at the project directory")
	}
}

func TestNewRegistryWithoutEmbedded(t *testing.T) {
	r := NewRegistry(nil, WithLogger(quietLogger()))
	if len(r.Available()) != 0 {
		t.Error("expected no titles")
	}
	if _, _, err := r.Select(); err == nil {
		t.Error("Select() should fail without titles")
	}
}

func TestLoadExternal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-story")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create test directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "project.yaml"), []byte(demoProject), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(embeddedTitles(), WithLogger(quietLogger()))
	if err := r.LoadExternal(dir); err != nil {
		t.Fatalf("LoadExternal() error: %v", err)
	}

	selected, needsSelection, err := r.Select()
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if needsSelection {
		t.Error("an external project should be selected automatically")
	}
	if selected.Name != "my-story" || selected.IsEmbedded {
		t.Errorf("selected = %+v", selected)
	}
	if selected.Project.StartScene != "intro" {
		t.Errorf("StartScene = %q", selected.Project.StartScene)
	}
}

func TestLoadExternalErrors(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(tmpFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	emptyDir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"nonexistent directory", "/nonexistent/path"},
		{"not a directory", tmpFile},
		{"no project file", emptyDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil, WithLogger(quietLogger()))
			if err := r.LoadExternal(tt.path); err == nil {
				t.Errorf("LoadExternal(%q) should fail", tt.path)
			}
		})
	}
}

func TestSelectNeedsSelection(t *testing.T) {
	r := NewRegistry(embeddedTitles(), WithLogger(quietLogger()))
	selected, needsSelection, err := r.Select()
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if !needsSelection || selected != nil {
		t.Errorf("Select() = %v, %v; want selection screen", selected, needsSelection)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	tt := &Title{Name: "dir-name"}
	if tt.DisplayName() != "dir-name" {
		t.Errorf("DisplayName() = %q", tt.DisplayName())
	}
}
