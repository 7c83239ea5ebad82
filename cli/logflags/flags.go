// Package logflags wires logging.Config into a flag.FlagSet, the way
// the teacher's cli/logflags wires its own logger.Config.
package logflags

import (
	"flag"

	"go.uber.org/zap"

	"github.com/cloudmere/avro/logging"
)

type Flags struct {
	Config logging.Config
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.Config.DevMode, "log.devmode", false, "development mode (if enabled dpanic level logs will cause a panic)")
	f.Config.Level = zap.InfoLevel
	fs.Var(&f.Config.Level, "log.level", "logging level")
	fs.StringVar(&f.Config.Path, "log.path", "stderr", "path to send logs (values: stderr, stdout, path in file system)")
	f.Config.Mode = logging.FileModeTruncate
	fs.Var(&f.Config.Mode, "log.filemode", "logger file write mode (values: append, truncate, rotate)")
}

func (f *Flags) Open() (*zap.Logger, error) {
	return logging.New(f.Config)
}
