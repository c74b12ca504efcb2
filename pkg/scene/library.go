package scene

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/zurustar/vnplay/pkg/command"
	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/logger"
)

// Document is the decoded form of a scene or common event file.
type Document struct {
	Name     string            `yaml:"name"`
	Commands []command.Command `yaml:"commands"`
}

// Library loads scene and common event programs on demand and caches them.
// It is the program source interpreters use for Call Scene and Call Common Event.
type Library struct {
	fsys    fileutil.FileSystem
	project *Project

	scenes map[string]*command.Program
	events map[int]*command.Program
	mu     sync.Mutex

	log *slog.Logger
}

// LibraryOption is a functional option for configuring the Library.
type LibraryOption func(*Library)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) LibraryOption {
	return func(l *Library) {
		l.log = log
	}
}

// NewLibrary creates a library for a loaded project.
func NewLibrary(fsys fileutil.FileSystem, project *Project, opts ...LibraryOption) *Library {
	l := &Library{
		fsys:    fsys,
		project: project,
		scenes:  make(map[string]*command.Program),
		events:  make(map[int]*command.Program),
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Project returns the project the library serves.
func (l *Library) Project() *Project {
	return l.project
}

// Scene returns the program of a declared scene.
func (l *Library) Scene(name string) (*command.Program, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.scenes[name]; ok {
		return p, nil
	}
	file, ok := l.project.Scenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, name)
	}
	p, err := l.load(file, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene %q: %w", name, err)
	}
	l.scenes[name] = p
	return p, nil
}

// CommonEvent returns the program of a declared common event. Load failures
// are logged and reported as a missing event.
func (l *Library) CommonEvent(id int) (*command.Program, bool) {
	p, err := l.commonEvent(id)
	if err != nil {
		l.log.Warn("Common event unavailable", "id", id, "error", err)
		return nil, false
	}
	return p, true
}

func (l *Library) commonEvent(id int) (*command.Program, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.events[id]; ok {
		return p, nil
	}
	for _, ce := range l.project.CommonEvents {
		if ce.ID != id {
			continue
		}
		name := ce.Name
		if name == "" {
			name = fmt.Sprintf("commonEvent%d", id)
		}
		p, err := l.load(ce.File, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load common event %d: %w", id, err)
		}
		l.events[id] = p
		return p, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrCommonEventNotFound, id)
}

// Preload loads every declared document so that broken files are reported
// at startup instead of when the player reaches them.
func (l *Library) Preload() error {
	for name := range l.project.Scenes {
		if _, err := l.Scene(name); err != nil {
			return err
		}
	}
	for _, ce := range l.project.CommonEvents {
		if _, err := l.commonEvent(ce.ID); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) load(file, name string) (*command.Program, error) {
	data, err := l.fsys.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data, l.project.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	l.log.Debug("Loaded program", "name", doc.Name, "file", file, "commands", len(doc.Commands))
	return command.NewProgram(doc.Name, doc.Commands), nil
}

// ParseDocument decodes a scene or common event document in the given encoding.
func ParseDocument(data []byte, encoding string) (*Document, error) {
	if encoding == EncodingShiftJIS {
		utf8Data, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert encoding: %w", err)
		}
		data = utf8Data
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// validateDocument rejects commands no interpreter could place. Indent
// sequences themselves are not checked.
func validateDocument(doc *Document) error {
	for i, c := range doc.Commands {
		if c.ID == "" {
			return fmt.Errorf("command %d has no id", i)
		}
		if c.Indent < 0 {
			return fmt.Errorf("command %d (%s) has negative indent %d", i, c.ID, c.Indent)
		}
	}
	return nil
}
