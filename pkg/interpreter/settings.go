package interpreter

// Settings are the message defaults of a running scene. A parent interpreter
// hands its *Settings to every sub-interpreter it starts, so changes made by a
// common event stay visible to the caller.
type Settings struct {
	MessageBoxID string `yaml:"messageBoxId"`
	AutoAdvance  bool   `yaml:"autoAdvance"`
	MessageSpeed int    `yaml:"messageSpeed"`
	LineSpacing  int    `yaml:"lineSpacing"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() *Settings {
	return &Settings{
		MessageBoxID: "default",
		MessageSpeed: 1,
	}
}

// Share returns the handle to pass to a sub-interpreter. It is the same
// pointer; both interpreters read and write one Settings value.
func (s *Settings) Share() *Settings {
	return s
}

// Clone returns an independent copy.
func (s *Settings) Clone() Settings {
	return *s
}
