package cli

import (
	"flag"
	"io"
	"os"
	"time"
)

const (
	DefaultServer  = "http://localhost:4000"
	serverEnv      = "HRCTL_SERVER"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	Server  string
	Timeout time.Duration
	Retries int
	Debug   bool
}

// ParseFlags reads hrctl flags from args, without the program name.
// -server falls back to $HRCTL_SERVER.
func ParseFlags(args []string, stderr io.Writer) (*Config, error) {
	cfg := &Config{Server: DefaultServer}
	if env := os.Getenv(serverEnv); env != "" {
		cfg.Server = env
	}

	fs := flag.NewFlagSet("hrctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Server, "server", cfg.Server, "API base url")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per request timeout")
	fs.IntVar(&cfg.Retries, "retries", 0, "retries for idempotent requests, 0 for the default, -1 to disable")
	fs.BoolVar(&cfg.Debug, "debug", false, "log client internals to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
