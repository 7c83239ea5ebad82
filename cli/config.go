package cli

import (
	"flag"
	"os"

	"github.com/alecthomas/units"
	"gopkg.in/yaml.v3"
)

// Config is the shape of the optional -config YAML file. Only avrocat
// accepts -config; it applies read_buffer, max_block_size, and
// schema_cache where the matching flag was not given, and source where
// the positional argument is empty. log_level, log_path, listen_addr,
// and bearer_token are parsed but not applied by any command.
type Config struct {
	Source        string `yaml:"source"`
	LogLevel      string `yaml:"log_level"`
	LogPath       string `yaml:"log_path"`
	ReadBuffer    string `yaml:"read_buffer"`
	MaxBlockSize  string `yaml:"max_block_size"`
	ListenAddr    string `yaml:"listen_addr"`
	BearerToken   string `yaml:"bearer_token"`
	SchemaCache   string `yaml:"schema_cache"`
}

// LoadConfig reads and parses a YAML config file. A missing path
// returns a zero Config and no error, so -config is always optional.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ByteSize is a flag.Value wrapping alecthomas/units so
// -read-buffer=8MiB and a config file's "8MiB" parse identically.
type ByteSize int64

func (b *ByteSize) Set(s string) error {
	v, err := units.ParseStrictBytes(s)
	if err != nil {
		return err
	}
	*b = ByteSize(v)
	return nil
}

func (b ByteSize) String() string {
	return units.Base2Bytes(b).String()
}

var _ flag.Value = (*ByteSize)(nil)
