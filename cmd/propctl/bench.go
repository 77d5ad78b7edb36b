package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/prop/internal/errors"
	"github.com/vango-dev/prop/pkg/prop"
	"github.com/vango-dev/prop/pkg/reactor"
)

type benchOptions struct {
	Writers     int
	Writes      int
	Subscribers int
	Immediate   bool
}

type benchResult struct {
	Writes    int64
	Delivered int64
	Expected  int64
	Elapsed   time.Duration
}

// Throughput returns delivered notifications per second.
func (r benchResult) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Delivered) / r.Elapsed.Seconds()
}

func benchCmd() *cobra.Command {
	var (
		configPath string
		opts       benchOptions
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark change delivery",
		Long: `Benchmark change delivery through a property.

Writers set one shared property concurrently while subscribers count
notifications. Deferred subscribers run on a private reactor; the
benchmark waits for it to drain before checking that every change
reached every subscriber.

Examples:
  propctl bench
  propctl bench --writers 8 --writes 50000
  propctl bench --immediate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("writers") {
				opts.Writers = cfg.Bench.Writers
			}
			if !cmd.Flags().Changed("writes") {
				opts.Writes = cfg.Bench.Writes
			}
			if !cmd.Flags().Changed("subscribers") {
				opts.Subscribers = cfg.Bench.Subscribers
			}
			if !cmd.Flags().Changed("immediate") {
				opts.Immediate = cfg.Bench.Immediate
			}

			mode := "deferred"
			if opts.Immediate {
				mode = "immediate"
			}
			info("%d writers × %d writes, %d %s subscribers", opts.Writers, opts.Writes, opts.Subscribers, mode)

			res, err := runBench(opts)
			if err != nil {
				return err
			}

			success("Delivered %d notifications in %s", res.Delivered, res.Elapsed.Round(time.Millisecond))
			info("Writes:     %d", res.Writes)
			info("Throughput: %.0f notifications/s", res.Throughput())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to propctl.json")
	cmd.Flags().IntVarP(&opts.Writers, "writers", "w", 4, "Concurrent writers")
	cmd.Flags().IntVarP(&opts.Writes, "writes", "n", 10000, "Writes per writer")
	cmd.Flags().IntVarP(&opts.Subscribers, "subscribers", "s", 4, "Subscribers on the property")
	cmd.Flags().BoolVar(&opts.Immediate, "immediate", false, "Deliver inline instead of through the reactor")

	return cmd
}

func runBench(opts benchOptions) (benchResult, error) {
	if opts.Writers < 1 || opts.Writes < 1 || opts.Subscribers < 0 {
		return benchResult{}, errors.New("E122").WithDetailf(
			"writers=%d writes=%d subscribers=%d", opts.Writers, opts.Writes, opts.Subscribers)
	}

	rx := reactor.New(
		reactor.WithName("bench"),
		reactor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := rx.Start(); err != nil {
		return benchResult{}, err
	}
	defer rx.Stop()

	h := prop.NewNamed("bench", 0)
	defer h.Release()

	var delivered atomic.Int64
	for i := 0; i < opts.Subscribers; i++ {
		deliver := prop.Via(rx)
		if opts.Immediate {
			deliver = prop.Immediate()
		}
		h.Connect(func() { delivered.Add(1) }, deliver)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < opts.Writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := h.Copy()
			defer local.Release()
			for i := 0; i < opts.Writes; i++ {
				local.Set(i)
			}
		}()
	}
	wg.Wait()
	if err := rx.Sync(); err != nil {
		return benchResult{}, err
	}

	res := benchResult{
		Writes:    int64(opts.Writers) * int64(opts.Writes),
		Delivered: delivered.Load(),
		Elapsed:   time.Since(start),
	}
	res.Expected = res.Writes * int64(opts.Subscribers)
	if res.Delivered != res.Expected {
		return res, fmt.Errorf("bench: delivered %d notifications, want %d", res.Delivered, res.Expected)
	}
	return res, nil
}
