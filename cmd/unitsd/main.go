// Command unitsd runs a UNITS node: the pending pool, slot scheduler,
// transaction executor, and a JSON-RPC front end over them.
//
// Usage:
//
//	unitsd [flags]
//
// Flags:
//
//	--config             Path to a TOML config file
//	--datadir            Data directory (implies storage.type=file)
//	--rpc.port           JSON-RPC HTTP listen port (default: 8545)
//	--slot.duration-ms   Auto-advance slot period in ms (0 = manual)
//	--slot.mode          Slot advance mode: auto or manual (default: manual)
//	--metrics            Expose Prometheus metrics on /metrics
//	--version            Print version and exit
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/units-io/units/config"
	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/executor"
	"github.com/units-io/units/kernel"
	"github.com/units-io/units/log"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/node"
	"github.com/units-io/units/riscv"
	"github.com/units-io/units/rpc"
	"github.com/units-io/units/scheduler"
	"github.com/units-io/units/service"
)

var mainLog = log.Default().Module("unitsd")

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.1.0 -X main.commit=abc1234"
var (
	version   = "v0.1.0-dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	flags, err := parseCLIFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if flags.version {
		fmt.Printf("unitsd %s (commit %s, built %s)\n", version, commit, buildTime)
		return 0
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		mainLog.Error("config error", "err", err)
		return 1
	}
	if flags.dataDir != "" {
		cfg.Storage.Type = config.StorageFile
		cfg.Storage.DataDir = flags.dataDir
	}
	switch flags.slotMode {
	case "auto":
		if flags.slotDurationMs <= 0 {
			mainLog.Error("slot.mode=auto requires a positive slot.duration-ms")
			return 1
		}
	case "manual":
	default:
		mainLog.Error("unknown slot.mode", "mode", flags.slotMode, "want", "auto or manual")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		mainLog.Error("invalid configuration", "err", err)
		return 1
	}

	mainLog.Info("unitsd starting",
		"version", version,
		"storage_type", cfg.Storage.Type,
		"rpc_port", flags.rpcPort,
		"slot_mode", flags.slotMode,
		"metrics", flags.metrics,
	)

	hc := node.NewHealthChecker()

	objects, proofs, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		mainLog.Error("failed to open storage", "err", err)
		return 1
	}
	defer closeStorage()
	hc.RegisterSubsystem("storage", storageChecker{objects: objects})

	receipts := rawdb.NewMemoryStore()
	locks := rawdb.NewLockManager()
	wal := rawdb.NewMemoryWAL()
	registry := kernel.NewDefaultRegistry()
	host := riscv.NewHost(riscv.Config{
		MemoryLimitBytes: uint32(cfg.Runtime.MaxMemoryBytes),
		InstructionLimit: uint64(cfg.Runtime.MaxInstructions),
		Timeout:          time.Duration(cfg.Runtime.MaxExecutionTimeMs) * time.Millisecond,
	})
	recent := executor.NewRecentSet(4096)
	ex := executor.New(objects, locks, wal, receipts, registry, host, recent)

	bus := node.NewEventBus(256)
	pool := scheduler.NewPool(0) // unbounded pending pool; server.max_connections bounds RPC concurrency, not pool depth
	sched := scheduler.New(scheduler.Config{
		SlotDurationMs: flags.slotDurationMs,
	}, pool, ex, proofs, receipts, bus)
	hc.RegisterSubsystem("scheduler", schedulerChecker{sched: sched})

	svc := service.New(pool, sched, objects, receipts, service.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})

	sysMetrics := metrics.NewSystemMetrics()
	sysMetrics.SetPendingCountFunc(pool.Count)
	sysMetrics.SetCurrentSlotFunc(sched.CurrentSlot)

	mux := http.NewServeMux()
	rpcServer := rpc.NewServer(svc)
	mux.Handle("/", rpcServer.Handler())
	if flags.metrics {
		mux.Handle("/metrics", metrics.Handler(metrics.DefaultRegistry, "units"))
		mux.HandleFunc("/debug/system", func(w http.ResponseWriter, r *http.Request) {
			data, err := sysMetrics.ExportJSON()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
		})
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := hc.CheckAll()
		status := http.StatusOK
		if report.OverallStatus != node.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, "%s\n", report.OverallStatus)
	})
	hc.RegisterSubsystem("rpc", rpcChecker{})

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", flags.rpcPort),
		Handler:     limitConnections(mux, cfg.Server.MaxConnections),
		ReadTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
	}

	lifecycle := node.NewLifecycleManager(node.DefaultLifecycleConfig())
	schedSvc := newSchedulerService(sched)
	rpcSvc := newRPCService(httpServer)
	if err := lifecycle.Register(schedSvc, 0); err != nil {
		mainLog.Error("failed to register scheduler service", "err", err)
		return 1
	}
	if err := lifecycle.Register(rpcSvc, 1); err != nil {
		mainLog.Error("failed to register rpc service", "err", err)
		return 1
	}
	for _, err := range lifecycle.StartAll() {
		mainLog.Error("service start failed", "err", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		mainLog.Info("received signal, shutting down", "signal", sig)
	case err := <-rpcSvc.errCh:
		mainLog.Error("rpc server error", "err", err)
		return 1
	}

	for _, err := range lifecycle.StopAll() {
		mainLog.Error("error during shutdown", "err", err)
		return 1
	}
	mainLog.Info("shutdown complete")
	return 0
}
