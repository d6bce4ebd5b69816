// Package config reads server settings from flags, falling back to
// BIBLIOTECA_* environment variables for anything not given on the command
// line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/erazemk/biblioteca/internal/covers"
)

// Config holds everything the server needs at startup.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
	Covers    covers.Config
}

// EnvPrefix is prepended to the upper-cased flag name to find its fallback.
const EnvPrefix = "BIBLIOTECA_"

const usage = `Usage: biblioteca [flags]

Flags:
  -d, -db <path>          SQLite database path (default: biblioteca.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: stdout/stderr only)
  -covers <driver>        cover storage: fs, memory or s3 (default: fs)
  -covers-dir <path>      directory for the fs driver (default: covers)
  -s3-bucket <name>       S3 bucket for the s3 driver
  -s3-region <region>     S3 region
  -s3-endpoint <url>      custom S3 endpoint (MinIO and similar)
  -s3-path-style          use path-style S3 addressing
  -h, -help               show this help and exit

Every flag can also be set through BIBLIOTECA_<NAME>, for example
BIBLIOTECA_S3_BUCKET.
`

// ErrHelp is returned when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// Load parses args. getenv is usually os.Getenv; usage text and parse errors
// go to out.
func Load(args []string, getenv func(string) string, out io.Writer) (Config, error) {
	env := func(name, def string) string {
		if v := getenv(EnvPrefix + name); v != "" {
			return v
		}
		return def
	}

	var cfg Config
	fs := flag.NewFlagSet("biblioteca", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	dbDef := env("DB", "biblioteca.sqlite3")
	fs.StringVar(&cfg.DBPath, "db", dbDef, "")
	fs.StringVar(&cfg.DBPath, "d", dbDef, "")

	addrDef := env("ADDR", ":8080")
	fs.StringVar(&cfg.Addr, "addr", addrDef, "")
	fs.StringVar(&cfg.Addr, "a", addrDef, "")

	userDef := env("USER", "admin")
	fs.StringVar(&cfg.AdminUser, "user", userDef, "")
	fs.StringVar(&cfg.AdminUser, "u", userDef, "")

	logDef := env("LOG", "")
	fs.StringVar(&cfg.LogPath, "log", logDef, "")
	fs.StringVar(&cfg.LogPath, "l", logDef, "")

	var driver string
	fs.StringVar(&driver, "covers", env("COVERS", string(covers.DriverFilesystem)), "")
	fs.StringVar(&cfg.Covers.Dir, "covers-dir", env("COVERS_DIR", "covers"), "")
	fs.StringVar(&cfg.Covers.S3.Bucket, "s3-bucket", env("S3_BUCKET", ""), "")
	fs.StringVar(&cfg.Covers.S3.Region, "s3-region", env("S3_REGION", ""), "")
	fs.StringVar(&cfg.Covers.S3.Endpoint, "s3-endpoint", env("S3_ENDPOINT", ""), "")

	pathStyle, err := strconv.ParseBool(env("S3_PATH_STYLE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parsing %sS3_PATH_STYLE: %w", EnvPrefix, err)
	}
	fs.BoolVar(&cfg.Covers.S3.PathStyle, "s3-path-style", pathStyle, "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg.Covers.Driver = covers.Driver(driver)
	cfg.Covers.S3.AccessKeyID = getenv("AWS_ACCESS_KEY_ID")
	cfg.Covers.S3.SecretAccessKey = getenv("AWS_SECRET_ACCESS_KEY")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.AdminUser == "" {
		return errors.New("admin username is required")
	}
	switch c.Covers.Driver {
	case covers.DriverFilesystem:
		if c.Covers.Dir == "" {
			return errors.New("covers directory is required for the fs driver")
		}
	case covers.DriverMemory:
	case covers.DriverS3:
		if c.Covers.S3.Bucket == "" {
			return errors.New("s3 bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown covers driver %q", c.Covers.Driver)
	}
	return nil
}
