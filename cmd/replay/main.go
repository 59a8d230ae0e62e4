// Command replay feeds a recorded JSONL transaction capture through a
// fresh engine and prints a per-kind summary of the signals produced.
// One line per TransactionEvent, in capture order.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"chain-sentinel/internal/config"
	"chain-sentinel/internal/detect"
	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/ingestion/stub"
)

// captureSink collects every published signal in memory.
type captureSink struct {
	mu      sync.Mutex
	signals []*domain.Signal
}

func (s *captureSink) Publish(_ context.Context, signal *domain.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, signal)
	return nil
}

func main() {
	input := flag.String("input", "", "Path to JSONL transaction capture")
	configPath := flag.String("config", "", "Path to TOML config file")
	verbose := flag.Bool("verbose", false, "Print every signal, not just the summary")
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if *input == "" {
		logger.Fatal("No input file specified. Use --input")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	detectCfg, err := cfg.DetectConfig()
	if err != nil {
		logger.Fatalf("Invalid detector config: %v", err)
	}

	file, err := os.Open(*input)
	if err != nil {
		logger.Fatalf("Failed to open input: %v", err)
	}
	defer file.Close()

	sink := &captureSink{}
	source := stub.New(1024)

	dispatcher := engine.NewDispatcher(engine.DispatcherOptions{
		WindowSize: cfg.Engine.WindowSize,
		Detectors:  detect.NewSet(detectCfg),
		Sink:       sink,
		Source:     source,
		Logger:     logger,
	})

	ctx := context.Background()

	runDone := make(chan error, 1)
	go func() {
		runDone <- dispatcher.Run(ctx)
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var lines, skipped int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines++

		event := new(domain.TransactionEvent)
		if err := json.Unmarshal(line, event); err != nil {
			logger.Printf("Skipping undecodable line %d: %v", lines, err)
			skipped++
			continue
		}
		source.Send(event)
	}
	if err := scanner.Err(); err != nil {
		logger.Fatalf("Failed reading input: %v", err)
	}

	source.Close()
	if err := <-runDone; err != nil {
		logger.Fatalf("Replay run failed: %v", err)
	}

	printSummary(sink.signals, lines, skipped, *verbose)
}

// printSummary writes the per-kind signal counts to stdout.
func printSummary(signals []*domain.Signal, lines, skipped int, verbose bool) {
	counts := make(map[domain.DetectorKind]int)
	for _, s := range signals {
		counts[s.Kind]++
		if verbose {
			fmt.Printf("%s %s severity=%s confidence=%.3f %s\n",
				s.SignalID, s.Kind, s.Severity, s.Confidence, s.Description)
		}
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Printf("Replayed %d events (%d skipped), %d signals:\n", lines, skipped, len(signals))
	for _, k := range kinds {
		fmt.Printf("  %-14s %d\n", k, counts[domain.DetectorKind(k)])
	}
}
