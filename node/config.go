package node

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Version is the current version of the embedded node runtime.
const Version = "0.1.0"

// Auto-update policies.
const (
	AutoUpdateNone   = "none"
	AutoUpdatePatch  = "patch"
	AutoUpdateStable = "stable"
)

// Config holds the parsed node configuration.
type Config struct {
	// Chain is the name of the chain to sync.
	Chain string

	// Light runs the node without block production of its own.
	Light bool

	// ListenHost and ListenPort are the P2P transport bind address.
	ListenHost string
	ListenPort int

	// Seeds are initial peers, each formatted as id@tcp://host:port.
	Seeds []string

	// MempoolSize is the maximum number of pending transactions.
	MempoolSize int

	// Workers is the size of the transaction validation pool.
	Workers int

	// BlockInterval is the block production period.
	BlockInterval time.Duration

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string

	// NoNetwork disables the P2P transport entirely.
	NoNetwork bool

	// AutoUpdate is the auto-update policy. Embedded use forces "none".
	AutoUpdate string

	// ShowVersion requests an instant version printout instead of a node.
	ShowVersion bool
}

// ParseCLI parses command-line style arguments into a Config. args[0] is the
// program name; the remaining elements are options.
func ParseCLI(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, errors.New("no arguments")
	}

	cfg := &Config{}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Chain, "chain", "mainnet", "chain to sync")
	fs.BoolVar(&cfg.Light, "light", false, "run as a light node")
	fs.StringVar(&cfg.ListenHost, "listen-host", "127.0.0.1", "P2P bind host")
	fs.IntVar(&cfg.ListenPort, "listen-port", 30901, "P2P bind port")
	seeds := fs.String("seeds", "", "comma-separated seed peers (id@tcp://host:port)")
	fs.IntVar(&cfg.MempoolSize, "mempool-size", 10000, "maximum pending transactions")
	fs.IntVar(&cfg.Workers, "workers", 4, "validation worker count")
	fs.DurationVar(&cfg.BlockInterval, "block-interval", 2*time.Second, "block production period")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Prometheus listen address")
	fs.BoolVar(&cfg.NoNetwork, "no-network", false, "disable P2P networking")
	fs.StringVar(&cfg.AutoUpdate, "auto-update", AutoUpdatePatch, "auto-update policy (none, patch, stable)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if *seeds != "" {
		cfg.Seeds = strings.Split(*seeds, ",")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.AutoUpdate {
	case AutoUpdateNone, AutoUpdatePatch, AutoUpdateStable:
	default:
		return fmt.Errorf("unknown auto-update policy %q", cfg.AutoUpdate)
	}

	if cfg.Chain == "" {
		return errors.New("chain name is required")
	}
	if cfg.MempoolSize <= 0 {
		return errors.New("mempool size must be positive")
	}
	if cfg.Workers <= 0 {
		return errors.New("worker count must be positive")
	}
	if cfg.BlockInterval <= 0 {
		return errors.New("block interval must be positive")
	}
	if cfg.ListenPort < 0 || cfg.ListenPort > 65535 {
		return fmt.Errorf("listen port %d out of range", cfg.ListenPort)
	}

	for _, seed := range cfg.Seeds {
		if !strings.Contains(seed, "@") {
			return fmt.Errorf("malformed seed %q, want id@tcp://host:port", seed)
		}
	}
	return nil
}
