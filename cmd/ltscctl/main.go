// Command ltscctl exercises the compression engine from the command line,
// following the retrieved teacher's main.go dispatch shape (mode/impl/
// threads flags switching over string constants) extended with the
// selection-mode and hierarchical knobs this engine's configuration surface
// adds. Token sequences are read and written as JSON arrays of uint32.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/tokseq/ltsc"
	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/logging"
)

func main() {
	mode := flag.String("mode", "", "Mode: compress, decompress, or discover")
	inPath := flag.String("in", "", "Input token file (JSON array of uint32)")
	outPath := flag.String("out", "", "Output file path")
	selectionMode := flag.String("selection", "greedy", "Selection mode: greedy, optimal, beam, ilp")
	beamWidth := flag.Int("beam-width", 8, "Beam width (beam mode only)")
	minLen := flag.Int("min-length", 2, "Minimum candidate pattern length")
	maxLen := flag.Int("max-length", 8, "Maximum candidate pattern length")
	hierarchical := flag.Bool("hierarchical", true, "Enable multi-pass compression")
	maxDepth := flag.Int("max-depth", 3, "Maximum hierarchical passes")
	parallel := flag.Bool("parallel", false, "Use work-stealing parallel discovery")
	workers := flag.Int("workers", 0, "Parallel discovery worker count (0 = GOMAXPROCS)")
	verify := flag.Bool("verify", false, "Round-trip verify after compress")
	verbose := flag.Bool("verbose", false, "Emit info-level logs to stderr")

	flag.Parse()

	if *verbose {
		logger, err := logging.New(logging.Config{Level: zapcore.InfoLevel})
		if err == nil {
			ltsc.SetLogger(logger)
		}
	}

	if *mode == "" || *inPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "ltscctl: -mode, -in and -out are required")
		os.Exit(1)
	}

	cfg := ltsc.DefaultConfig()
	cfg.SelectionMode = config.SelectionMode(*selectionMode)
	cfg.BeamWidth = *beamWidth
	cfg.MinSubsequenceLength = *minLen
	cfg.MaxSubsequenceLength = *maxLen
	cfg.HierarchicalEnabled = *hierarchical
	cfg.HierarchicalMaxDepth = *maxDepth
	cfg.ParallelDiscovery = *parallel
	cfg.ParallelWorkers = *workers
	cfg.Verify = *verify

	tokens, err := readTokens(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ltscctl: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "compress":
		result, err := ltsc.Compress(tokens, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: compress: %v\n", err)
			os.Exit(1)
		}
		if err := writeTokens(*outPath, result.Stream); err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("original=%d compressed=%d ratio=%.4f passes=%d\n",
			result.OriginalLength, result.CompressedLength, result.Ratio, len(result.Passes))

	case "decompress":
		out, err := ltsc.Decompress(tokens, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: decompress: %v\n", err)
			os.Exit(1)
		}
		if err := writeTokens(*outPath, out); err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: %v\n", err)
			os.Exit(1)
		}

	case "discover":
		candidates, err := ltsc.Discover(tokens, *minLen, *maxLen, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: discover: %v\n", err)
			os.Exit(1)
		}
		if err := writeJSON(*outPath, candidates); err != nil {
			fmt.Fprintf(os.Stderr, "ltscctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("candidates=%d\n", len(candidates))

	default:
		fmt.Fprintf(os.Stderr, "ltscctl: unknown mode %q\n", *mode)
		os.Exit(1)
	}
}

func readTokens(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var tokens []uint32
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tokens, nil
}

func writeTokens(path string, tokens []uint32) error {
	return writeJSON(path, tokens)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
