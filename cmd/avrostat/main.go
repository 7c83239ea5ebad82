// Command avrostat streams an Avro container file and reports a
// record count plus an approximate distinct-value count per top-level
// field.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/axiomhq/hyperloglog"

	"github.com/cloudmere/avro"
	"github.com/cloudmere/avro/avroio"
	"github.com/cloudmere/avro/cache"
	"github.com/cloudmere/avro/cli"
	"github.com/cloudmere/avro/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("avrostat", flag.ExitOnError)
	var cliFlags cli.Flags
	var schemaCache string
	cliFlags.SetFlags(fs)
	fs.StringVar(&schemaCache, "schema-cache", "", `schema cache backend: "lru" (default) or "redis://host:port"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: avrostat [flags] <source-uri>")
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

	u, err := storage.ParseURI(fs.Arg(0))
	if err != nil {
		return err
	}
	rc, err := storage.NewEngine().Get(ctx, u)
	if err != nil {
		return err
	}
	defer rc.Close()

	r, err := avroio.NewReader(rc, avroio.WithSchemaCache(schemas))
	if err != nil {
		return err
	}
	defer r.Close()

	fieldNames := topLevelFieldNames(r.Schema())
	sketches := make(map[string]*hyperloglog.Sketch, len(fieldNames))
	for _, name := range fieldNames {
		sketches[name] = hyperloglog.New()
	}

	var records int64
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		records++
		rec, ok := v.(avro.RecordValue)
		if !ok {
			continue
		}
		for _, f := range rec {
			sketches[f.Name].Insert([]byte(fmt.Sprintf("%v", f.Value)))
		}
	}

	fmt.Printf("records: %d\n", records)
	for _, name := range fieldNames {
		fmt.Printf("%s: ~%d distinct values\n", name, sketches[name].Estimate())
	}
	return nil
}

func topLevelFieldNames(s avro.Schema) []string {
	rec, ok := s.(*avro.RecordSchema)
	if !ok {
		return nil
	}
	names := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		names[i] = f.Name
	}
	return names
}
