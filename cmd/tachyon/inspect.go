package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/tachyon/block"
	"github.com/arloliu/tachyon/compress"
	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/source"
)

type inspectFlags struct {
	batchSize int
	seed      int64
}

var inspectOpts inspectFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "compress one generated batch and print block stats",
	RunE:  inspectBlock,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectOpts.batchSize, "batch-size", 4096, "ticks in the batch")
	inspectCmd.Flags().Int64Var(&inspectOpts.seed, "seed", 42, "generator seed")

	rootCmd.AddCommand(inspectCmd)
}

// rawTickSize is the wire-row size of an uncompressed tick, the baseline
// the compression ratio is reported against.
const rawTickSize = 36

func inspectBlock(cmd *cobra.Command, args []string) error {
	gen := source.NewGenerator(source.WithSeed(inspectOpts.seed), source.WithBatchLimit(1))
	batch, ok := gen.NextBatch(inspectOpts.batchSize)
	if !ok {
		return fmt.Errorf("generator produced no batch")
	}

	blk, err := block.Compress(batch)
	if err != nil {
		return err
	}

	rawSize := len(batch) * rawTickSize
	serialized := blk.Bytes()

	fmt.Printf("symbol ID:        %d\n", blk.SymbolID())
	fmt.Printf("ticks:            %d\n", blk.NumTicks())
	fmt.Printf("time range:       [%d, %d]\n", blk.StartTimestamp(), blk.EndTimestamp())
	fmt.Printf("raw size:         %d bytes\n", rawSize)
	fmt.Printf("payload size:     %d bytes (%.1f%% of raw)\n",
		blk.PayloadSize(), 100*float64(blk.PayloadSize())/float64(rawSize))
	fmt.Printf("serialized size:  %d bytes\n", len(serialized))

	zstd := compress.NewZstdCompressor()
	recompressed, err := zstd.Compress(serialized)
	if err != nil {
		return err
	}
	fmt.Printf("with %s at rest: %d bytes\n", format.CompressionZstd, len(recompressed))

	return nil
}
