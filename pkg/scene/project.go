// Package scene loads a project description and the scene and common event
// documents it lists.
package scene

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/interpreter"
)

// ProjectFileName is the name of the project description at the project root.
const ProjectFileName = "project.yaml"

// Supported document encodings.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

var (
	// ErrSceneNotFound is returned for a scene name the project does not declare.
	ErrSceneNotFound = errors.New("scene not found")
	// ErrCommonEventNotFound is returned for a common event id the project does not declare.
	ErrCommonEventNotFound = errors.New("common event not found")
)

// Project is the decoded project.yaml.
type Project struct {
	Title        string            `yaml:"title"`
	StartScene   string            `yaml:"startScene"`
	Encoding     string            `yaml:"encoding"`
	Screen       Screen            `yaml:"screen"`
	SoundFont    string            `yaml:"soundFont"`
	Scenes       map[string]string `yaml:"scenes"`
	CommonEvents []CommonEventRef  `yaml:"commonEvents"`
	Message      *MessageDefaults  `yaml:"message"`
	Font         *Font             `yaml:"font"`
}

// Screen is the logical screen size.
type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// CommonEventRef declares a common event document.
type CommonEventRef struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// MessageDefaults are the initial message settings of the start scene.
type MessageDefaults struct {
	MessageBoxID string `yaml:"messageBoxId"`
	AutoAdvance  bool   `yaml:"autoAdvance"`
	MessageSpeed int    `yaml:"messageSpeed"`
	LineSpacing  int    `yaml:"lineSpacing"`
}

// Font selects the message font. File is an OpenType or TrueType font
// (a .ttc collection uses its first face) relative to the project root.
type Font struct {
	File string  `yaml:"file"`
	Size float64 `yaml:"size"`
}

// Settings returns the interpreter settings the project starts with.
func (p *Project) Settings() *interpreter.Settings {
	s := interpreter.DefaultSettings()
	if p.Message == nil {
		return s
	}
	if p.Message.MessageBoxID != "" {
		s.MessageBoxID = p.Message.MessageBoxID
	}
	s.AutoAdvance = p.Message.AutoAdvance
	if p.Message.MessageSpeed > 0 {
		s.MessageSpeed = p.Message.MessageSpeed
	}
	s.LineSpacing = p.Message.LineSpacing
	return s
}

// LoadProject reads and validates the project description at path.
func LoadProject(fsys fileutil.FileSystem, path string) (*Project, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project YAML: %w", err)
	}
	applyProjectDefaults(&project)

	if err := validateProject(&project); err != nil {
		return nil, fmt.Errorf("invalid project %s: %w", path, err)
	}
	return &project, nil
}

func applyProjectDefaults(p *Project) {
	p.Encoding = strings.ToLower(strings.TrimSpace(p.Encoding))
	switch p.Encoding {
	case "", "utf8":
		p.Encoding = EncodingUTF8
	case "sjis", "shift-jis", "cp932":
		p.Encoding = EncodingShiftJIS
	}
	if p.Screen.Width == 0 {
		p.Screen.Width = 640
	}
	if p.Screen.Height == 0 {
		p.Screen.Height = 480
	}
	if p.Font != nil && p.Font.Size == 0 {
		p.Font.Size = 16
	}
}

func validateProject(p *Project) error {
	if p.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if p.Encoding != EncodingUTF8 && p.Encoding != EncodingShiftJIS {
		return fmt.Errorf("unsupported encoding %q", p.Encoding)
	}
	if p.Screen.Width < 0 || p.Screen.Height < 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", p.Screen.Width, p.Screen.Height)
	}
	if p.Font != nil && (p.Font.File == "" || p.Font.Size < 0) {
		return fmt.Errorf("font needs a file and a positive size")
	}
	if len(p.Scenes) == 0 {
		return fmt.Errorf("scenes cannot be empty")
	}
	for name, file := range p.Scenes {
		if name == "" || file == "" {
			return fmt.Errorf("scene entries need a name and a file, got %q: %q", name, file)
		}
	}
	if _, ok := p.Scenes[p.StartScene]; !ok {
		return fmt.Errorf("startScene %q is not declared in scenes", p.StartScene)
	}

	seen := make(map[int]bool, len(p.CommonEvents))
	for _, ce := range p.CommonEvents {
		if ce.ID < 0 {
			return fmt.Errorf("common event id must be >= 0, got %d", ce.ID)
		}
		if seen[ce.ID] {
			return fmt.Errorf("duplicate common event id %d", ce.ID)
		}
		if ce.File == "" {
			return fmt.Errorf("common event %d has no file", ce.ID)
		}
		seen[ce.ID] = true
	}
	return nil
}
