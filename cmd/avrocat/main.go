// Command avrocat prints the records of an Avro container file to
// stdout, one per line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gosuri/uilive"
	"github.com/kr/text"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cloudmere/avro"
	"github.com/cloudmere/avro/avroio"
	"github.com/cloudmere/avro/cache"
	"github.com/cloudmere/avro/cli"
	"github.com/cloudmere/avro/cli/logflags"
	"github.com/cloudmere/avro/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, wrapDiagnostic(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("avrocat", flag.ExitOnError)
	var cliFlags cli.Flags
	var logFlags logflags.Flags
	var configPath string
	var progress bool
	cliFlags.SetFlags(fs)
	logFlags.SetFlags(fs)
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.BoolVar(&progress, "progress", false, "show a live progress line (only when stdout is a terminal)")
	var readBuffer, maxBlockSize cli.ByteSize
	fs.Var(&readBuffer, "read-buffer", "initial read buffer size, e.g. 32KiB")
	fs.Var(&maxBlockSize, "max-block-size", "largest block payload the reader will buffer, e.g. 64MiB")
	var schemaCache string
	fs.StringVar(&schemaCache, "schema-cache", "", `schema cache backend: "lru" (default) or "redis://host:port"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: avrocat [flags] <source-uri>")
	}

	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if readBuffer == 0 && cfg.ReadBuffer != "" {
		if err := readBuffer.Set(cfg.ReadBuffer); err != nil {
			return err
		}
	}
	if maxBlockSize == 0 && cfg.MaxBlockSize != "" {
		if err := maxBlockSize.Set(cfg.MaxBlockSize); err != nil {
			return err
		}
	}
	if schemaCache == "" {
		schemaCache = cfg.SchemaCache
	}
	schemas, err := cache.Open(schemaCache, nil)
	if err != nil {
		return err
	}

	ctx, cancel, err := cliFlags.Init()
	if err != nil {
		return err
	}
	defer cancel()

	logger, err := logFlags.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()

	source := fs.Arg(0)
	if source == "" {
		source = cfg.Source
	}

	r, err := openContainer(ctx, source, logger, readBuffer, maxBlockSize, schemas)
	if err != nil {
		return err
	}
	defer r.Close()

	var live *uilive.Writer
	if progress && term.IsTerminal(int(os.Stdout.Fd())) {
		live = uilive.New()
		live.Start()
		defer live.Stop()
	}

	var n int
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		n++
		if live != nil {
			fmt.Fprintf(live, "%d records\n", n)
			continue
		}
		fmt.Println(formatValue(v))
	}
	return nil
}

func openContainer(ctx context.Context, source string, logger *zap.Logger, readBuffer, maxBlockSize cli.ByteSize, schemas *cache.Cache) (*avroio.Reader, error) {
	u, err := storage.ParseURI(source)
	if err != nil {
		return nil, err
	}
	engine := storage.NewEngine()
	rc, err := engine.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	opts := []avroio.Option{avroio.WithLogger(logger), avroio.WithSchemaCache(schemas)}
	if readBuffer > 0 || maxBlockSize > 0 {
		initial, max := defaultBufferSize, defaultMaxBuffer
		if readBuffer > 0 {
			initial = int(readBuffer)
		}
		if maxBlockSize > 0 {
			max = int(maxBlockSize)
		}
		opts = append(opts, avroio.WithBufferSize(initial, max))
	}
	return avroio.NewReader(rc, opts...)
}

const (
	defaultBufferSize = 32 * 1024
	defaultMaxBuffer  = 64 * 1024 * 1024
)

// formatValue is a terse, non-canonical debug rendering. Avro's value
// system deliberately has no JSON encoder in this module; this exists
// only to give avrocat something readable to print.
func formatValue(v avro.Value) string {
	return fmt.Sprintf("%v", v)
}

func wrapDiagnostic(err error) string {
	return text.Wrap(err.Error(), 100)
}
