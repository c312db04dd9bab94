package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/pior/rsdb"
	"github.com/pior/rsdb/wire"
)

// CLI is the rsdb-bench command line.
type CLI struct {
	URL         string        `help:"Connection string; the path names the database." default:"rsdb://@localhost/bench"`
	Count       int           `help:"Number of keys." default:"10000"`
	Mode        string        `help:"Operation to measure." enum:"set,get,range" default:"set"`
	PageSize    int           `help:"Pairs per range command." default:"100"`
	Batch       int           `help:"Pairs per set command." default:"1"`
	Concurrency int           `help:"Number of sessions running in parallel (set and get)." default:"1"`
	Timeout     time.Duration `help:"Timeout of each command." default:"5s"`
	Verbose     bool          `short:"v" help:"Log session events."`
}

type result struct {
	ops      int64
	failures int64
	duration time.Duration
	stats    rsdb.SessionStats
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("rsdb-bench"),
		kong.Description("Measures rsdb command throughput."),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: "15:04:05"}))

	cfg, err := rsdb.ConfigFromURL(cli.URL, rsdb.WithLogger(logger))
	kctx.FatalIfErrorf(err)
	if cfg.DB == "" {
		kctx.Fatalf("the connection string must name a database, e.g. rsdb://@localhost/bench")
	}

	fmt.Printf("rsdb Benchmark Tool\n")
	fmt.Printf("===================\n")
	fmt.Printf("Server: %s (db %s)\n", cfg.Addr, cfg.DB)
	fmt.Printf("Mode: %s, keys: %d\n", cli.Mode, cli.Count)
	fmt.Println()

	connector := rsdb.NewConnector(cfg)

	var res result
	switch cli.Mode {
	case "set":
		res, err = runParallel(connector, &cli, benchSet)
	case "get":
		res, err = runParallel(connector, &cli, benchGet)
	case "range":
		res, err = benchRange(connector, &cli)
	}
	kctx.FatalIfErrorf(err)

	printResult(cli.Mode, res)
}

type worker func(ctx context.Context, s *rsdb.Session, cli *CLI, from, to int) (ops, failures int64)

// runParallel splits the key space between cli.Concurrency sessions.
func runParallel(connector *rsdb.Connector, cli *CLI, fn worker) (result, error) {
	n := max(cli.Concurrency, 1)
	sessions := make([]*rsdb.Session, n)
	for i := range sessions {
		s, err := connector.Connect(context.Background())
		if err != nil {
			return result{}, fmt.Errorf("connect: %w", err)
		}
		defer s.Close()
		sessions[i] = s
	}

	var ops, failures atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	chunk := (cli.Count + n - 1) / n
	for i, s := range sessions {
		from, to := i*chunk, min((i+1)*chunk, cli.Count)
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, f := fn(context.Background(), s, cli, from, to)
			ops.Add(o)
			failures.Add(f)
		}()
	}
	wg.Wait()

	res := result{ops: ops.Load(), failures: failures.Load(), duration: time.Since(start)}
	for _, s := range sessions {
		addStats(&res.stats, s.Stats())
	}
	return res, nil
}

func benchSet(ctx context.Context, s *rsdb.Session, cli *CLI, from, to int) (ops, failures int64) {
	batch := max(cli.Batch, 1)
	pairs := make([]wire.Pair, 0, batch)

	flush := func() {
		if len(pairs) == 0 {
			return
		}
		cctx, cancel := context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
		if _, err := s.MSet(cctx, pairs...); err != nil {
			failures += int64(len(pairs))
		}
		ops += int64(len(pairs))
		pairs = pairs[:0]
	}

	for i := from; i < to; i++ {
		pairs = append(pairs, wire.Pair{Key: benchKey(i), Value: []byte(fmt.Sprintf("value-%d", i))})
		if len(pairs) == batch {
			flush()
		}
	}
	flush()
	return ops, failures
}

func benchGet(ctx context.Context, s *rsdb.Session, cli *CLI, from, to int) (ops, failures int64) {
	for i := from; i < to; i++ {
		cctx, cancel := context.WithTimeout(ctx, cli.Timeout)
		value, err := s.GetValue(cctx, benchKey(i))
		cancel()
		if err != nil || value == nil {
			failures++
		}
		ops++
	}
	return ops, failures
}

// benchRange walks the whole database, one page per command.
func benchRange(connector *rsdb.Connector, cli *CLI) (result, error) {
	s, err := connector.Connect(context.Background())
	if err != nil {
		return result{}, fmt.Errorf("connect: %w", err)
	}
	defer s.Close()

	pages := cli.Count/max(cli.PageSize, 1) + 1
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout*time.Duration(pages))
	defer cancel()

	var res result
	start := time.Now()
	err = s.Walk(ctx, rsdb.RangeStart{}, cli.PageSize, func(wire.Pair) bool {
		res.ops++
		return true
	})
	res.duration = time.Since(start)
	res.stats = s.Stats()
	return res, err
}

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("bench-key-%08d", i))
}

func addStats(dst *rsdb.SessionStats, s rsdb.SessionStats) {
	dst.Commands += s.Commands
	dst.OpErrors += s.OpErrors
	dst.FatalErrors += s.FatalErrors
	dst.BytesWritten += s.BytesWritten
	dst.BytesRead += s.BytesRead
}

func printResult(mode string, res result) {
	seconds := res.duration.Seconds()
	if seconds == 0 {
		seconds = 1e-9
	}

	fmt.Printf("%s results:\n", mode)
	fmt.Printf("  Keys:          %d\n", res.ops)
	fmt.Printf("  Failures:      %d\n", res.failures)
	fmt.Printf("  Commands:      %d\n", res.stats.Commands)
	fmt.Printf("  Duration:      %v\n", res.duration.Round(time.Millisecond))
	fmt.Printf("  Keys/sec:      %.0f\n", float64(res.ops)/seconds)
	fmt.Printf("  Commands/sec:  %.0f\n", float64(res.stats.Commands)/seconds)
	if res.stats.Commands > 0 {
		fmt.Printf("  Avg latency:   %v\n", (res.duration / time.Duration(res.stats.Commands)).Round(time.Microsecond))
	}
	fmt.Printf("  Bytes out/in:  %d / %d\n", res.stats.BytesWritten, res.stats.BytesRead)
}
