// Command-line interface to the voxpack cuboid compressor.  Reads a
// labeled voxel stream on stdin (or a file) and writes cuboid records to
// stdout (or a file).

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/voxpack/compressor"
	"github.com/janelia-flyem/voxpack/voxpack"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to a TOML config file; flags override its values.
	configFile = flag.String("config", "", "")

	// Grouping strategy name.
	strategyName = flag.String("strategy", "", "")

	// Max parallel strategies in Smart Merge.
	poolSize = flag.Int("pool", 0, "")

	// Output buffer high-water mark in bytes.
	flushThreshold = flag.Int("flush", 0, "")

	// Emit CRLF line endings.
	writeCRLF = flag.Bool("crlf", false, "")

	// Gzip the CSV output stream.
	gzipOutput = flag.Bool("gzip", false, "")

	// Output format: csv or binary.
	format = flag.String("format", "", "")

	// Batch compression for binary output: none, snappy, lz4, gzip.
	batchCompression = flag.String("compression", "", "")

	// Add CRC32 checksums to binary output batches.
	batchChecksum = flag.Bool("checksum", false, "")

	// Enable Z stacking in the streaming strategy.
	depthMerge = flag.Bool("zmerge", false, "")

	// Verify every parent-block strategy batch against the covering
	// invariants.  stream-rlexy output is not checked.
	checkInvariants = flag.Bool("check", false, "")

	// Path to a rotating log file.  Leave unset for stderr.
	logfile = flag.String("logfile", "", "")
)

const helpMessage = `
voxpack compresses a labeled 3d voxel grid into axis-aligned cuboid records

Usage: voxpack [options] [input [output]]

      -strategy   =string   Grouping strategy: default, greedy, maxrect,
                            rlexy, smart, or stream-rlexy.
      -config     =string   Path to TOML config file; flags override it.
      -pool       =number   Max parallel strategies in Smart Merge (0 = one
                            goroutine per strategy).
      -flush      =number   Output buffer high-water mark in bytes.
      -format     =string   Output format: csv (default) or binary.
      -compression=string   Binary batch compression: none, snappy, lz4, gzip.
      -checksum   (flag)    Add CRC32 checksums to binary batches.
      -crlf       (flag)    Emit CRLF line endings.
      -gzip       (flag)    Gzip the CSV output stream.
      -zmerge     (flag)    Enable Z stacking in stream-rlexy.
      -check      (flag)    Verify covering invariants on every parent-block
                            batch (slow); stream-rlexy is not checked.
      -logfile    =string   Path to a rotating log file.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Input and output default to stdin and stdout.  Gzip-compressed input is
detected automatically.

Exit codes: 0 on success, 2 on an input or format error, 1 otherwise.
`

var usage = func() {
	fmt.Printf(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *runVerbose {
		voxpack.Verbose = true
	}
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg.Logging.SetLogger()

	in, out, cleanup, err := openStreams(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := compressor.Run(in, out, cfg); err != nil {
		cleanup()
		voxpack.Errorf("compression failed: %v\n", err)
		voxpack.CloseLogger()
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		if voxpack.IsInputErr(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	cleanup()
	voxpack.CloseLogger()
}

// loadConfig merges the optional config file with flag overrides.
func loadConfig() (compressor.Config, error) {
	cfg := compressor.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = compressor.LoadConfig(*configFile); err != nil {
			return cfg, err
		}
	}
	if *strategyName != "" {
		cfg.Strategy = *strategyName
	}
	if *poolSize != 0 {
		cfg.EnsemblePoolSize = *poolSize
	}
	if *flushThreshold != 0 {
		cfg.FlushThresholdBytes = *flushThreshold
	}
	if *writeCRLF {
		cfg.WriteCRLF = true
	}
	if *gzipOutput {
		cfg.GzipOutput = true
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *batchCompression != "" {
		cfg.BatchCompression = *batchCompression
	}
	if *batchChecksum {
		cfg.BatchChecksum = true
	}
	if *depthMerge {
		cfg.StreamDepthMerge = true
	}
	if *checkInvariants {
		cfg.CheckInvariants = true
	}
	if *logfile != "" {
		cfg.Logging.Logfile = *logfile
	}
	return cfg, nil
}

// openStreams resolves the optional positional input and output paths.
func openStreams(args []string) (io.Reader, io.Writer, func(), error) {
	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	var closers []io.Closer

	if len(args) >= 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not open input %q: %v", args[0], err)
		}
		in = f
		closers = append(closers, f)
	}
	if len(args) >= 2 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not create output %q: %v", args[1], err)
		}
		out = f
		closers = append(closers, f)
	}
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	return in, out, cleanup, nil
}
