// Package main provides a performance benchmarking tool for the segcoalesce CLI.
// It generates fragmented segment tables of increasing size, seeds a fresh SQLite
// database for each, and times the first coalescing pass (which rewrites every group)
// and a second pass (which finds nothing to do), in both transaction modes.
// Results are written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - segcoalesce binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated seed files and databases (default: a temp dir)
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of a benchmark run.
type BenchmarkResult struct {
	Size      string
	TxMode    string
	Rows      int
	LoadTime  string
	FirstPass string
	NoopPass  string
}

// BenchmarkSize describes one generated dataset.
type BenchmarkSize struct {
	Name     string
	Definers int
	Rows     int // rows per definer and table
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir string
	Timeout time.Duration
	Sizes   []BenchmarkSize
	TxModes []string
}

// windowStart is the first GPS second of generated rows.
const windowStart = 1000000000

func main() {
	// Parse command line arguments
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := ""
	if len(os.Args) == 2 {
		workDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "segcoalesce-benchmark-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir: workDir,
		Timeout: 10 * time.Minute,
		Sizes: []BenchmarkSize{
			{Name: "small", Definers: 4, Rows: 100},
			{Name: "medium", Definers: 16, Rows: 1000},
			{Name: "large", Definers: 32, Rows: 10000},
		},
		TxModes: []string{"window", "group"},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the segcoalesce binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("segcoalesce"); err != nil {
		return fmt.Errorf("segcoalesce binary not found in PATH")
	}
	return nil
}

// runBenchmarks executes every size in every transaction mode
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d tx modes, %v timeout\n",
		len(config.Sizes), len(config.TxModes), config.Timeout)

	for _, size := range config.Sizes {
		seedPath := filepath.Join(config.WorkDir, size.Name+".csv")
		rows, err := writeSeed(seedPath, size)
		if err != nil {
			fmt.Printf("Failed to generate %s seed: %v\n", size.Name, err)
			continue
		}

		for _, mode := range config.TxModes {
			fmt.Printf("Benchmarking %s (%d rows) in %s mode\n", size.Name, rows, mode)
			dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("%s-%s.db", size.Name, mode))
			_ = os.Remove(dbPath)

			result := BenchmarkResult{Size: size.Name, TxMode: mode, Rows: rows}
			result.LoadTime = timeCommand(config, dbPath, "segments", "load", "--file", seedPath)
			window := []string{"coalesce", "--start", strconv.Itoa(windowStart), "--end", strconv.Itoa(windowStart + 10*size.Rows), "--tx-mode", mode}
			result.FirstPass = timeCommand(config, dbPath, window...)
			result.NoopPass = timeCommand(config, dbPath, window...)

			fmt.Printf("  Load: %s, First pass: %s, No-op pass: %s\n", result.LoadTime, result.FirstPass, result.NoopPass)
			results = append(results, result)
		}
	}

	return results
}

// writeSeed generates overlapping rows: every interval overlaps the next one and
// every third interval only touches it, so each definer coalesces to a single row.
func writeSeed(path string, size BenchmarkSize) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	buf := bufio.NewWriter(file)
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"table", "ifos", "name", "version", "start", "end"}); err != nil {
		return 0, err
	}

	n := 0
	for d := range size.Definers {
		name := fmt.Sprintf("BENCH-%03d", d)
		for _, table := range []string{"segment", "segment_summary"} {
			for i := range size.Rows {
				start := windowStart + 10*i
				end := start + 12
				if i%3 == 2 {
					end = start + 10
				}
				record := []string{table, "H1", name, "1", strconv.Itoa(start), strconv.Itoa(end)}
				if err := writer.Write(record); err != nil {
					return n, err
				}
				n++
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return n, err
	}
	return n, buf.Flush()
}

// timeCommand runs segcoalesce against dbPath and returns the elapsed time, or FAILED/TIMEOUT
func timeCommand(config BenchmarkConfig, dbPath string, args ...string) string {
	cmd := exec.Command("segcoalesce", args...)
	cmd.Env = append(os.Environ(),
		"SEGCOALESCE_DB_BACKEND=sqlite",
		"SEGCOALESCE_DB_CONNECT="+dbPath,
		"SEGCOALESCE_COLOR=no",
	)

	done := make(chan error, 1)
	var output []byte
	start := time.Now()
	go func() {
		var err error
		output, err = cmd.CombinedOutput()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			fmt.Printf("  Command failed: %s\n  Output: %s\n", cmd.String(), string(output))
			return "FAILED"
		}
		return fmt.Sprintf("%.3fs", time.Since(start).Seconds())
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		return "TIMEOUT"
	}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/segcoalesce_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"size", "tx_mode", "rows", "load", "first_pass", "noop_pass"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, r := range results {
		if err := writer.Write([]string{r.Size, r.TxMode, strconv.Itoa(r.Rows), r.LoadTime, r.FirstPass, r.NoopPass}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-8s %-7s %8d rows: Load: %s, First pass: %s, No-op pass: %s\n",
			r.Size, r.TxMode, r.Rows, r.LoadTime, r.FirstPass, r.NoopPass)
	}
}
