package main

import "flag"

// cliFlags holds every unitsd command-line flag, bound directly to a
// flag.FlagSet rather than a config struct, since they map onto several
// different config sections (storage/runtime/server) plus a couple of
// process-level options the config file doesn't carry at all.
type cliFlags struct {
	configPath     string
	dataDir        string
	rpcPort        int
	slotDurationMs int
	slotMode       string
	metrics        bool
	version        bool
}

func parseCLIFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("unitsd", flag.ContinueOnError)
	f := &cliFlags{}

	fs.StringVar(&f.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&f.dataDir, "datadir", "", "data directory (overrides storage.data_dir, implies storage.type=file)")
	fs.IntVar(&f.rpcPort, "rpc.port", 8545, "JSON-RPC HTTP listen port")
	fs.IntVar(&f.slotDurationMs, "slot.duration-ms", 0, "auto-advance slot period in milliseconds (0 = manual)")
	fs.StringVar(&f.slotMode, "slot.mode", "manual", "slot advance mode: auto or manual")
	fs.BoolVar(&f.metrics, "metrics", false, "expose Prometheus metrics on /metrics")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
