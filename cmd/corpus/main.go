// Command corpus exports, builds and lists corpus archives.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/meigma/corpus"
	"github.com/meigma/corpus/config"
	"github.com/meigma/corpus/internal/logging"
)

const usage = `Usage: corpus <command> [flags] [args]

Commands:
  export ARCHIVE [DEST]   reconstruct the archived tree under DEST
  create NAME SRC_DIR     archive SRC_DIR as <archive-dir>/NAME.corpus<ext>
  list ARCHIVE            print kind, size and path of every entry

Run "corpus <command> --help" for command flags.
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "export":
		return runExport(rest, stderr)
	case "create":
		return runCreate(rest, stdout, stderr)
	case "list":
		return runList(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath  string
	logLevel    string
	compression string
	archiveDir  string
}

func newFlagSet(name string, stderr io.Writer, common *commonFlags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&common.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&common.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&common.compression, "compression", "", "archive compression: zstd, gzip, lz4, none")
	flagSet.StringVar(&common.archiveDir, "archive-dir", "", "directory archives are written to")
	return flagSet
}

// parse parses args and returns the positional arguments. It reports
// done when help was requested.
func parse(flagSet *pflag.FlagSet, args []string) (positional []string, done bool, err error) {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("%w: %w", errUsage, err)
	}
	return flagSet.Args(), false, nil
}

// load reads the config file, if any, and applies flag overrides.
func (c *commonFlags) load(flagSet *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.LoadFile(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flagSet.Changed("compression") {
		cfg.Archive.Compression = c.compression
	}
	if flagSet.Changed("archive-dir") {
		cfg.Archive.Dir = c.archiveDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExport(args []string, stderr io.Writer) error {
	var common commonFlags
	var maxMemory uint64
	flagSet := newFlagSet("export", stderr, &common)
	flagSet.Uint64Var(&maxMemory, "max-decoder-memory", 0, "bound zstd decoder memory in bytes")

	positional, done, err := parse(flagSet, args)
	if done || err != nil {
		return err
	}
	cfg, err := common.load(flagSet)
	if err != nil {
		return err
	}

	var archivePath, dest string
	switch len(positional) {
	case 1:
		archivePath, dest = positional[0], cfg.Export.Dir
		if dest == "" {
			return fmt.Errorf("%w: export needs DEST or export.dir in the config", errUsage)
		}
	case 2:
		archivePath, dest = positional[0], positional[1]
	default:
		return fmt.Errorf("%w: export takes ARCHIVE [DEST]", errUsage)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are not actionable

	opts := []corpus.ExportOption{corpus.ExportWithLogger(logger)}
	if flagSet.Changed("compression") {
		c, err := cfg.Compression()
		if err != nil {
			return err
		}
		opts = append(opts, corpus.ExportWithCompression(c))
	}
	if maxMemory == 0 {
		maxMemory = cfg.Export.MaxDecoderMemory
	}
	if maxMemory > 0 {
		opts = append(opts, corpus.ExportWithMaxDecoderMemory(maxMemory))
	}
	return corpus.Export(archivePath, dest, opts...)
}

func runCreate(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	flagSet := newFlagSet("create", stderr, &common)

	positional, done, err := parse(flagSet, args)
	if done || err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("%w: create takes NAME SRC_DIR", errUsage)
	}
	cfg, err := common.load(flagSet)
	if err != nil {
		return err
	}

	archiveDir, ok := cfg.ArchiveDir()
	if !ok {
		return errors.New("archive writing is disabled in the config")
	}
	c, err := cfg.Compression()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are not actionable

	b, err := corpus.CreateArchive(archiveDir, positional[0],
		corpus.BuilderWithCompression(c),
		corpus.BuilderWithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := b.AddTree(positional[1]); err != nil {
		if abortErr := b.Abort(); abortErr != nil {
			logger.Warn("failed to discard partial archive", zap.Error(abortErr))
		}
		return err
	}
	desc, err := b.Close()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s %d\n", b.Path(), desc.Digest, desc.Size)
	return nil
}

func runList(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	flagSet := newFlagSet("list", stderr, &common)

	positional, done, err := parse(flagSet, args)
	if done || err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: list takes ARCHIVE", errUsage)
	}
	cfg, err := common.load(flagSet)
	if err != nil {
		return err
	}

	var opts []corpus.ReaderOption
	if flagSet.Changed("compression") {
		c, err := cfg.Compression()
		if err != nil {
			return err
		}
		opts = append(opts, corpus.ReaderWithCompression(c))
	}
	r, err := corpus.OpenReader(positional[0], opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	out := bufio.NewWriter(stdout)
	for e, err := range r.Entries() {
		if err != nil {
			_ = out.Flush() //nolint:errcheck // read error takes precedence
			return err
		}
		if _, err := fmt.Fprintf(out, "%-5s %10d %s\n", e.Kind, e.Size, e.Path); err != nil {
			return err
		}
	}
	return out.Flush()
}
