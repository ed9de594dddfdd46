package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/profile"
	"github.com/plus3/ooftn-store/ecs"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	os.Exit(stress(os.Args[1:], os.Stdout))
}

// stress runs the whole command and returns the process exit code. It must
// not call os.Exit itself: the profile and log cleanup are deferred here.
func stress(args []string, out io.Writer) int {
	cfg, err := loadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 2
	}

	closeLog := setupLogging(cfg.LogFile)
	defer closeLog()

	if cfg.Profile != "" {
		defer startProfile(cfg.Profile).Stop()
	}

	if err := run(cfg, out); err != nil {
		log.Printf("Stress test failed: %v", err)
		return 1
	}
	log.Println("Stress test complete.")
	return 0
}

func run(cfg *Config, out io.Writer) error {
	log.Println("Starting ECS stress test...")

	// 1. Setup storage and the worker pool
	storage := ecs.NewStorage()
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	// 2. Populate storage with initial entities
	log.Printf("Populating storage with %d entities...\n", cfg.Entities)
	w := newWorld(storage, cfg.Entities, cfg.Churn, cfg.Seed)
	log.Println("Population complete.")

	// 3. Run the simulation loop
	report := &Report{
		Duration:       cfg.Duration,
		Entities:       cfg.Entities,
		Workers:        cfg.Workers,
		Churn:          cfg.Churn,
		GCPauseMetrics: cfg.GCPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", cfg.Duration)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			churned, err := w.frame(pool, deltaTime.Seconds())
			if err != nil {
				return err
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.Churned += int64(churned)
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Storage = storage.CollectStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	if sample, err := sampleProcess(); err != nil {
		log.Printf("Process metrics unavailable: %v", err)
	} else {
		report.Process = sample
	}

	log.Println("Simulation finished.")

	// 4. Generate report
	if err := report.Generate(out, cfg.Format); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	return nil
}

// setupLogging tees the standard logger into a rotating file when path is set.
func setupLogging(path string) func() {
	if path == "" {
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename: path,
		MaxSize:  10, // megabytes
		MaxAge:   30, // days
		Compress: true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return func() {
		log.SetOutput(os.Stderr)
		_ = rotator.Close()
	}
}

func startProfile(mode string) interface{ Stop() } {
	if mode == "mem" {
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
}
