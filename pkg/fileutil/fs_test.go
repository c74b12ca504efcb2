package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestAssetFS_CaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "Scenes"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"project.yaml":          "title: demo",
		"Scenes/Intro.YAML":     "commands: []",
		"UPPERCASE.WAV":         "wav",
		"Scenes/lowercase.yaml": "commands: []",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	fsys := NewDirFS(tmpDir)

	tests := []struct {
		name       string
		searchName string
		shouldFind bool
		want       string
	}{
		{"exact match", "project.yaml", true, "project.yaml"},
		{"leading slash", "/project.yaml", true, "project.yaml"},
		{"directory and file case differ", "scenes/intro.yaml", true, "Scenes/Intro.YAML"},
		{"windows separators", "SCENES\\LOWERCASE.yaml", true, "Scenes/lowercase.yaml"},
		{"uppercase file", "uppercase.wav", true, "UPPERCASE.WAV"},
		{"missing file", "nope.yaml", false, ""},
		{"missing directory", "other/intro.yaml", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fsys.Resolve(tt.searchName)
			if !tt.shouldFind {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Resolve(%q) error = %v, want ErrNotFound", tt.searchName, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.searchName, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.searchName, got, tt.want)
			}
			if _, err := fsys.ReadFile(tt.searchName); err != nil {
				t.Errorf("ReadFile(%q) error = %v", tt.searchName, err)
			}
		})
	}
}

func TestEmbedFS_Sub(t *testing.T) {
	mem := fstest.MapFS{
		"titles/demo/project.yaml":    {Data: []byte("title: demo")},
		"titles/demo/Pictures/bg.PNG": {Data: []byte("png")},
	}
	fsys, err := NewEmbedFS(mem, "titles/demo")
	if err != nil {
		t.Fatalf("NewEmbedFS() error = %v", err)
	}
	if !fsys.IsEmbedded() {
		t.Error("IsEmbedded() should be true")
	}
	data, err := fsys.ReadFile("pictures/bg.png")
	if err != nil || string(data) != "png" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
	if fsys.Exists("project.json") {
		t.Error("Exists() reported a missing file")
	}
}

func TestSearch(t *testing.T) {
	first := mustEmbed(t, fstest.MapFS{"music/a.mid": {Data: []byte("a")}})
	second := mustEmbed(t, fstest.MapFS{
		"sound.sf2":        {Data: []byte("root")},
		"soundfonts/b.sf2": {Data: []byte("b")},
	})

	loc, err := Search([]FileSystem{nil, first, second}, []string{"soundfonts", "."}, "sound.sf2")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if loc.FS != second || loc.Path != "sound.sf2" {
		t.Errorf("Search() = %+v", loc)
	}
	data, err := loc.ReadFile()
	if err != nil || string(data) != "root" {
		t.Errorf("Location.ReadFile() = %q, %v", data, err)
	}

	loc, err = Search([]FileSystem{first, second}, []string{"soundfonts"}, "B.SF2")
	if err != nil || loc.FS != second {
		t.Errorf("Search() for b.sf2 = %+v, %v", loc, err)
	}

	if _, err := Search([]FileSystem{first}, nil, "none.sf2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Search() error = %v, want ErrNotFound", err)
	}
}

func mustEmbed(t *testing.T, mem fstest.MapFS) *AssetFS {
	t.Helper()
	fsys, err := NewEmbedFS(mem, ".")
	if err != nil {
		t.Fatal(err)
	}
	return fsys
}
