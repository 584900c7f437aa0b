package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"

	"github.com/arloliu/tachyon"
	"github.com/arloliu/tachyon/cluster"
	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/source"
	"github.com/arloliu/tachyon/tick"
)

type runFlags struct {
	workers     int
	batches     int
	batchSize   int
	symbols     int
	seed        int64
	compression string
	queryKind   string
	symbol      string
	startTime   uint64
	endTime     uint64
	progress    bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "ingest generated ticks into a worker cluster and run queries",
	RunE:  runCluster,
}

func init() {
	runCmd.Flags().IntVar(&runOpts.workers, "workers", 2, "number of worker ranks")
	runCmd.Flags().IntVar(&runOpts.batches, "batches", 10, "number of batches to ingest")
	runCmd.Flags().IntVar(&runOpts.batchSize, "batch-size", 4096, "ticks per batch")
	runCmd.Flags().IntVar(&runOpts.symbols, "symbols", 0, "size of a synthetic hashed-ID symbol universe (0 uses AAPL/GOOG)")
	runCmd.Flags().Int64Var(&runOpts.seed, "seed", 42, "generator seed")
	runCmd.Flags().StringVar(&runOpts.compression, "compression", "none", "DATA frame compression: none, s2, lz4, zstd")
	runCmd.Flags().StringVar(&runOpts.queryKind, "query", "all", "query to run: avgspread, vwap, ohlc, all")
	runCmd.Flags().StringVar(&runOpts.symbol, "symbol", "", "symbol to query (default: first in universe)")
	runCmd.Flags().Uint64Var(&runOpts.startTime, "start", 0, "query window start timestamp (inclusive)")
	runCmd.Flags().Uint64Var(&runOpts.endTime, "end", ^uint64(0), "query window end timestamp (inclusive)")
	runCmd.Flags().BoolVar(&runOpts.progress, "progress", true, "display an ingest progress bar")

	rootCmd.AddCommand(runCmd)
}

func parseCompression(name string) (format.CompressionType, error) {
	switch strings.ToLower(name) {
	case "none":
		return format.CompressionNone, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	case "zstd":
		return format.CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

func parseQueryKinds(name string) ([]format.QueryType, error) {
	switch strings.ToLower(name) {
	case "avgspread":
		return []format.QueryType{format.QueryAvgSpread}, nil
	case "vwap":
		return []format.QueryType{format.QueryVWAP}, nil
	case "ohlc":
		return []format.QueryType{format.QueryOHLC}, nil
	case "all":
		return []format.QueryType{format.QueryAvgSpread, format.QueryVWAP, format.QueryOHLC}, nil
	default:
		return nil, fmt.Errorf("unknown query kind %q", name)
	}
}

// buildUniverse returns the symbol set the generator quotes and the
// coordinator options matching how its IDs are distributed.
func buildUniverse(f runFlags) ([]source.Symbol, []cluster.CoordinatorOption) {
	if f.symbols <= 0 {
		return source.DefaultSymbols(), nil
	}

	symbols := make([]source.Symbol, 0, f.symbols)
	for i := 0; i < f.symbols; i++ {
		name := fmt.Sprintf("SYM%04d", i)
		symbols = append(symbols, source.NewSymbol(name, 50.0+float64(i), 0.05))
	}

	// Hashed IDs are dense in no useful way; spread them by re-hashing.
	return symbols, []cluster.CoordinatorOption{cluster.WithPartitioner(cluster.HashPartitioner)}
}

type progressSource struct {
	inner source.Source
	bar   *progressbar.ProgressBar
}

func (p *progressSource) NextBatch(maxTicks int) ([]tick.Raw, bool) {
	batch, ok := p.inner.NextBatch(maxTicks)
	if ok {
		_ = p.bar.Add(1)
	}

	return batch, ok
}

func runCluster(cmd *cobra.Command, args []string) error {
	compression, err := parseCompression(runOpts.compression)
	if err != nil {
		return err
	}
	kinds, err := parseQueryKinds(runOpts.queryKind)
	if err != nil {
		return err
	}

	symbols, opts := buildUniverse(runOpts)
	opts = append(opts, cluster.WithCompression(compression))

	querySymbol := symbols[0]
	if runOpts.symbol != "" {
		found := false
		for _, sym := range symbols {
			if sym.Name == runOpts.symbol {
				querySymbol = sym
				found = true

				break
			}
		}
		if !found {
			return fmt.Errorf("symbol %q not in the generated universe", runOpts.symbol)
		}
	}

	ctx := context.Background()

	c, err := tachyon.NewCluster(runOpts.workers, opts...)
	if err != nil {
		return err
	}
	c.Start(ctx)

	var src source.Source = source.NewGenerator(
		source.WithSeed(runOpts.seed),
		source.WithSymbols(symbols),
		source.WithBatchLimit(runOpts.batches),
	)
	if runOpts.progress {
		src = &progressSource{inner: src, bar: progressbar.New(runOpts.batches)}
	}

	stats, err := c.Ingest(ctx, src, runOpts.batchSize)
	if err != nil {
		return err
	}
	if runOpts.progress {
		fmt.Println()
	}
	log.Printf("ingested %d ticks in %d batches across %d workers", stats.Ticks, stats.Batches, runOpts.workers)

	for _, kind := range kinds {
		res, err := c.Query(ctx, query.Query{
			Type:      kind,
			StartTime: runOpts.startTime,
			EndTime:   runOpts.endTime,
			SymbolID:  querySymbol.ID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", querySymbol.Name, res)
	}

	return c.Shutdown()
}
