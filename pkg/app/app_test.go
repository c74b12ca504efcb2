package app

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestRun(t *testing.T) {
	t.Setenv("VNPLAY_HEADLESS", "")
	t.Setenv("VNPLAY_TIMEOUT", "")
	t.Setenv("VNPLAY_LOG_LEVEL", "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name: "ヘルプ表示",
			args: []string{"--help"},
		},
		{
			name:    "無効なログレベル",
			args:    []string{"--log-level", "loud"},
			wantErr: "failed to parse args",
		},
		{
			name:    "存在しないプロジェクト",
			args:    []string{"--headless", "-l", "error", t.TempDir() + "/missing"},
			wantErr: "failed to load external project",
		},
		{
			name:    "プロジェクトがない",
			args:    []string{"--headless", "-l", "error"},
			wantErr: "failed to select title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(fstest.MapFS{}).Run(tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Run() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Run() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
