package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	mp4 "github.com/tetsuo/mp4edit"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	eff, err := Load(dir, CLIArgs{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if eff.Source != "" {
		t.Fatalf("Source = %q, want empty", eff.Source)
	}
	if eff.LogLevel != slog.LevelInfo || !eff.LogColor || eff.LogDir != "" {
		t.Fatalf("log defaults = %+v", eff)
	}
	if eff.Rotation != mp4.Rotate90CW || eff.InPlace || !eff.Verify {
		t.Fatalf("defaults = %+v", eff)
	}
	if eff.OutputSuffix != DefaultSuffix || eff.LogMaxSize != DefaultMaxFileSize || eff.LogMaxFiles != DefaultMaxRotated {
		t.Fatalf("defaults = %+v", eff)
	}
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, `
log:
  level: debug
  color: false
  dir: logs
  max_size: 2048
  max_files: 3
rotate:
  default: "180"
output:
  in_place: true
  suffix: .rot
verify: false
`)

	eff, err := Load(dir, CLIArgs{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if eff.Source != filepath.Join(dir, FileName) {
		t.Fatalf("Source = %q", eff.Source)
	}
	if eff.LogLevel != slog.LevelDebug || eff.LogColor || eff.LogDir != "logs" || eff.LogMaxSize != 2048 || eff.LogMaxFiles != 3 {
		t.Fatalf("log = %+v", eff)
	}
	if eff.Rotation != mp4.Rotate180 || !eff.InPlace || eff.OutputSuffix != ".rot" || eff.Verify {
		t.Fatalf("eff = %+v", eff)
	}
}

func TestLoad_CLIOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, "rotate:\n  default: \"180\"\noutput:\n  in_place: true\nverify: true\n")

	eff, err := Load(dir, CLIArgs{
		LogLevel: "warn", LogLevelSet: true,
		Rotation: "90ccw", RotationSet: true,
		InPlace: false, InPlaceSet: true,
		Verify: false, VerifySet: true,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if eff.LogLevel != slog.LevelWarn || eff.Rotation != mp4.Rotate90CCW || eff.InPlace || eff.Verify {
		t.Fatalf("eff = %+v", eff)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, CLIArgs{ConfigPath: "nope.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("code = %q, err = %v", Code(err), err)
	}
}

func TestLoad_ExplicitRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "custom.yaml", "log:\n  level: error\n")

	eff, err := Load(dir, CLIArgs{ConfigPath: "custom.yaml"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if eff.LogLevel != slog.LevelError {
		t.Fatalf("level = %v", eff.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cli     CLIArgs
	}{
		{"bad yaml", "log: [", CLIArgs{}},
		{"unknown field", "colour: true\n", CLIArgs{}},
		{"bad level", "log:\n  level: loud\n", CLIArgs{}},
		{"bad rotation", "rotate:\n  default: 45\n", CLIArgs{}},
		{"bad cli rotation", "", CLIArgs{Rotation: "sideways", RotationSet: true}},
		{"suffix with separator", "output:\n  suffix: a/b\n", CLIArgs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, FileName, tt.content)
			_, err := Load(dir, tt.cli)
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("code = %q, err = %v", Code(err), err)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, "")
	if _, err := Load(dir, CLIArgs{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestCode_NonConfigError(t *testing.T) {
	if Code(os.ErrNotExist) != "" {
		t.Fatal("Code of foreign error should be empty")
	}
}
