package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// outputPath picks where an edited file goes: the explicit -o path, the
// input itself when editing in place, or the input name with suffix
// inserted before the extension.
func outputPath(input, explicit string, inPlace bool, suffix string) string {
	if explicit != "" {
		return explicit
	}
	if inPlace {
		return input
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// writeFileAtomic writes data next to path and renames it into place, so a
// failed write never leaves a half-edited movie behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
