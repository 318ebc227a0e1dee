package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	mp4 "github.com/tetsuo/mp4edit"
	"github.com/tetsuo/mp4edit/internal/config"
	"github.com/tetsuo/mp4edit/track"
)

func infoCmd(e *env, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	format := fs.String("format", "text", "output format: text, json")

	path, err := e.parse(fs, &c, args, nil)
	if err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return usageError{fmt.Sprintf("unknown format %q", *format)}
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tracks, err := track.Parse(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	infos := make([]trackInfo, 0, len(tracks))
	for _, t := range tracks {
		infos = append(infos, newTrackInfo(t))
	}

	if *format == "json" {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	for _, ti := range infos {
		ti.writeText(e.stdout)
	}
	return nil
}

func trimCmd(e *env, args []string) error {
	fs := flag.NewFlagSet("trim", flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	start := fs.Duration("start", 0, "start of the kept window, e.g. 1.5s")
	end := fs.Duration("end", 0, "end of the kept window, e.g. 10s")

	path, err := e.parse(fs, &c, args, nil)
	if err != nil {
		return err
	}
	if *end <= *start || *start < 0 {
		return usageError{fmt.Sprintf("need 0 <= -start < -end, got %v and %v", *start, *end)}
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	n, err := mp4.TrimEditLists(buf, *start, *end)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: no edit lists to trim", path)
	}
	e.log.Info("edit lists rewritten", "file", path, "count", n, "start", *start, "end", *end)

	return e.finish(path, c.output, buf, func(buf []byte) error {
		return verifyTrim(e.log, buf)
	})
}

func rotateCmd(e *env, args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	rotation := fs.String("rotation", config.DefaultRotation, "rotation: 90cw, 90ccw, 180")

	path, err := e.parse(fs, &c, args, func(set map[string]bool, cli *config.CLIArgs) {
		cli.Rotation = *rotation
		cli.RotationSet = set["rotation"]
	})
	if err != nil {
		return err
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	m, err := mp4.RotateVideo(buf, e.cfg.Rotation)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	deg, _ := m.Degrees()
	e.log.Info("video matrix rewritten", "file", path, "rotation", e.cfg.Rotation, "degrees", deg)

	return e.finish(path, c.output, buf, func(buf []byte) error {
		return verifyRotate(e.log, buf, m)
	})
}

// finish verifies the edited buffer when enabled and writes it out.
func (e *env) finish(input, output string, buf []byte, verify func([]byte) error) error {
	if e.cfg.Verify {
		start := time.Now()
		if err := verify(buf); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		e.log.Debug("verified", "elapsed", time.Since(start))
	}

	dst := outputPath(input, output, e.cfg.InPlace, e.cfg.OutputSuffix)
	if err := writeFileAtomic(dst, buf); err != nil {
		return err
	}
	e.log.Info("written", "file", dst, "bytes", len(buf))
	return nil
}
