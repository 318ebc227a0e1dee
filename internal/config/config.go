// Package config loads mp4edit.yaml and merges it with command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	mp4 "github.com/tetsuo/mp4edit"
)

const (
	// ErrCodeNotFound means an explicitly named config file does not exist.
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid means the file cannot be read or parsed, or a value is
	// out of range.
	ErrCodeInvalid = "config_invalid"
)

// FileName is the config file looked up in the working directory when no
// path is given.
const FileName = "mp4edit.yaml"

const (
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 1 << 20
	DefaultMaxRotated     = 7
	DefaultDateTimeLayout = "2006-01-02T15"
	DefaultSuffix         = ".edited"
	DefaultRotation       = "90cw"
)

// CLIArgs holds the flags that can override the file. The *Set fields
// record whether a flag was given, so that -verify=false can override
// verify: true.
type CLIArgs struct {
	ConfigPath string

	LogLevel    string
	LogLevelSet bool

	Rotation    string
	RotationSet bool

	InPlace    bool
	InPlaceSet bool

	Verify    bool
	VerifySet bool
}

// FileConfig mirrors mp4edit.yaml.
type FileConfig struct {
	Log    LogConfig    `yaml:"log"`
	Rotate RotateConfig `yaml:"rotate"`
	Output OutputConfig `yaml:"output"`
	Verify *bool        `yaml:"verify"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Color    *bool  `yaml:"color"`
	Dir      string `yaml:"dir"`
	MaxSize  uint64 `yaml:"max_size"`
	MaxFiles uint64 `yaml:"max_files"`
	Layout   string `yaml:"layout"`
}

type RotateConfig struct {
	Default string `yaml:"default"`
}

type OutputConfig struct {
	InPlace *bool  `yaml:"in_place"`
	Suffix  string `yaml:"suffix"`
}

// Effective is the merged configuration consumed by the commands.
type Effective struct {
	Source string // config file used, empty when none

	LogLevel      slog.Level
	LogColor      bool
	LogDir        string // rotating file log disabled when empty
	LogMaxSize    uint64
	LogMaxFiles   uint64
	LogFileLayout string
	Rotation      mp4.Rotation
	InPlace       bool
	OutputSuffix  string
	Verify        bool
}

// Error is a configuration error carrying a machine-readable code.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Path)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code from err, or "" if err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load reads the config file and merges it with cli.
//
// A file named by cli.ConfigPath must exist. Otherwise <cwd>/mp4edit.yaml is
// read when present. Precedence for every overridable field is flag, then
// file, then built-in default.
func Load(cwd string, cli CLIArgs) (Effective, error) {
	var (
		path     string
		required bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		path, required = cli.ConfigPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
	} else {
		path = filepath.Join(cwd, FileName)
	}

	fc, exists, err := readFile(path)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if !exists {
		if required {
			return Effective{}, &Error{Code: ErrCodeNotFound, Path: path, Err: os.ErrNotExist}
		}
		path = ""
	}

	eff, err := merge(fc, cli)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	eff.Source = path
	return eff, nil
}

func readFile(path string) (FileConfig, bool, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, false, nil
	}
	if err != nil {
		return fc, false, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, true, err
	}
	return fc, true, nil
}

func merge(fc FileConfig, cli CLIArgs) (Effective, error) {
	eff := Effective{
		LogColor:      true,
		LogDir:        fc.Log.Dir,
		LogMaxSize:    fc.Log.MaxSize,
		LogMaxFiles:   fc.Log.MaxFiles,
		LogFileLayout: fc.Log.Layout,
		OutputSuffix:  fc.Output.Suffix,
		Verify:        true,
	}

	level := DefaultLogLevel
	if cli.LogLevelSet {
		level = cli.LogLevel
	} else if fc.Log.Level != "" {
		level = fc.Log.Level
	}
	if err := eff.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Effective{}, fmt.Errorf("log level: %w", err)
	}

	rotation := DefaultRotation
	if cli.RotationSet {
		rotation = cli.Rotation
	} else if fc.Rotate.Default != "" {
		rotation = fc.Rotate.Default
	}
	r, err := mp4.ParseRotation(rotation)
	if err != nil {
		return Effective{}, err
	}
	eff.Rotation = r

	if fc.Log.Color != nil {
		eff.LogColor = *fc.Log.Color
	}
	if cli.InPlaceSet {
		eff.InPlace = cli.InPlace
	} else if fc.Output.InPlace != nil {
		eff.InPlace = *fc.Output.InPlace
	}
	if cli.VerifySet {
		eff.Verify = cli.Verify
	} else if fc.Verify != nil {
		eff.Verify = *fc.Verify
	}

	if eff.LogMaxSize == 0 {
		eff.LogMaxSize = DefaultMaxFileSize
	}
	if eff.LogMaxFiles == 0 {
		eff.LogMaxFiles = DefaultMaxRotated
	}
	if eff.LogFileLayout == "" {
		eff.LogFileLayout = DefaultDateTimeLayout
	}
	if eff.OutputSuffix == "" {
		eff.OutputSuffix = DefaultSuffix
	}
	if strings.ContainsAny(eff.OutputSuffix, `/\`) {
		return Effective{}, fmt.Errorf("output suffix %q contains a path separator", eff.OutputSuffix)
	}
	return eff, nil
}
