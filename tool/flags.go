package tool

import (
	"flag"

	"github.com/moyoez/cutqueue/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseBackend, "useBackend", "", "override the processing service base URL")
	flag.StringVar(&cfg.UseListen, "useListen", "", "override the local API listen address")
	flag.IntVar(&cfg.UsePollInterval, "usePollInterval", 0, "override the poll interval in milliseconds")
	flag.StringVar(&cfg.UseDownloadFolder, "useDownloadFolder", "", "save processed results into this folder (headless mode)")
	flag.StringVar(&cfg.Files, "files", "", "comma separated files to enqueue at startup")
	flag.BoolVar(&cfg.AutoProcess, "autoProcess", false, "request processing for every eligible item once uploads settle")
	flag.BoolVar(&cfg.ExitWhenDone, "exitWhenDone", false, "print a summary and exit once nothing is left to poll")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, do not forward notifications to the unix socket")
	flag.BoolVar(&cfg.ProbeBackend, "probeBackend", false, "ping the backend host and check /health before starting")
	flag.BoolVar(&cfg.NoServer, "noServer", false, "do not start the local HTTP API")
	flag.Parse()
	return cfg
}
