// Command mp4edit trims and rotates MP4 files by rewriting edit lists and
// track header matrices in place, without touching media samples.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tetsuo/mp4edit/internal/config"
	"github.com/tetsuo/mp4edit/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(stderr)
		return 2
	}

	var cmd func(*env, []string) error
	switch args[0] {
	case "info":
		cmd = infoCmd
	case "trim":
		cmd = trimCmd
	case "rotate":
		cmd = rotateCmd
	default:
		fmt.Fprintf(stderr, "unknown command: %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	e := &env{name: args[0], stdout: stdout, stderr: stderr}
	if err := cmd(e, args[1:]); err != nil {
		var ue usageError
		if errors.As(err, &ue) || errors.Is(err, flag.ErrHelp) {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
			}
			return 2
		}
		if e.log != nil {
			e.log.Error(args[0]+" failed", "err", err, "code", config.Code(err))
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		}
		return 1
	}
	return 0
}

// env carries what every subcommand needs once flags are parsed.
type env struct {
	name   string
	stdout io.Writer
	stderr io.Writer
	cfg    config.Effective
	log    *slog.Logger
}

// usageError marks errors caused by bad arguments.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	logLevel   string
	verify     bool
	inPlace    bool
	output     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	fs.StringVar(&c.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&c.verify, "verify", true, "re-parse the edited file with an independent decoder before writing")
	fs.BoolVar(&c.inPlace, "in-place", false, "overwrite the input file")
	fs.StringVar(&c.output, "o", "", "output file (default <input>"+config.DefaultSuffix+".mp4)")
}

// parse parses args, loads the configuration and sets up logging. It
// returns the single positional argument, the input file.
func (e *env) parse(fs *flag.FlagSet, c *commonFlags, args []string, extra func(set map[string]bool, cli *config.CLIArgs)) (string, error) {
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", usageError{fmt.Sprintf("expected one input file, got %d arguments", fs.NArg())}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cli := config.CLIArgs{
		ConfigPath:  c.configPath,
		LogLevel:    c.logLevel,
		LogLevelSet: set["log-level"],
		InPlace:     c.inPlace,
		InPlaceSet:  set["in-place"],
		Verify:      c.verify,
		VerifySet:   set["verify"],
	}
	if extra != nil {
		extra(set, &cli)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(cwd, cli)
	if err != nil {
		return "", err
	}
	e.cfg = cfg

	log, err := logging.New(e.stderr, logging.Options{
		Level:           cfg.LogLevel,
		NoColor:         !cfg.LogColor,
		Dir:             cfg.LogDir,
		MaxFileSize:     cfg.LogMaxSize,
		MaxRotatedFiles: cfg.LogMaxFiles,
		DateTimeLayout:  cfg.LogFileLayout,
	})
	if err != nil {
		return "", fmt.Errorf("logging: %w", err)
	}
	e.log = log.With("cmd", e.name)
	if cfg.Source != "" {
		e.log.Debug("config loaded", "path", cfg.Source)
	}
	return fs.Arg(0), nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "-help" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `usage: mp4edit <command> [flags] <file.mp4>

commands:
  info     print tracks, timescales, edit lists and rotation
  trim     rewrite the first edit of every edit list to -start/-end
  rotate   rotate the video track by -rotation (90cw, 90ccw, 180)

Run "mp4edit <command> -h" for the flags of a command.`)
}
