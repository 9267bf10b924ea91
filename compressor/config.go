/*
	Package compressor wires the frame reader, parent tiler, grouping
	strategies, and emitter into a single run over an input and output
	stream.
*/
package compressor

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/voxpack/strategy"
	"github.com/janelia-flyem/voxpack/voxpack"
)

// Output formats.
const (
	FormatCSV    = "csv"
	FormatBinary = "binary"
)

// Config names the grouping strategy and output options for one run.
// Values can come from flags or a TOML file layered over DefaultConfig.
// Zero values of the pool size, flush threshold, format and batch
// compression select their defaults; Strategy must name a strategy.
type Config struct {
	// Strategy is one of: default, greedy, maxrect, rlexy, smart,
	// stream-rlexy.
	Strategy string `toml:"strategy"`

	// EnsemblePoolSize bounds parallel strategies in Smart Merge.
	// 0 runs one goroutine per strategy.
	EnsemblePoolSize int `toml:"ensemble_pool_size"`

	// WriteCRLF switches the emitter to CRLF line endings.
	WriteCRLF bool `toml:"write_crlf"`

	// FlushThresholdBytes is the output buffer high-water mark.
	// 0 selects the 1 MiB default.
	FlushThresholdBytes int `toml:"flush_threshold_bytes"`

	// GzipOutput compresses the CSV output stream.
	GzipOutput bool `toml:"gzip_output"`

	// Format selects csv (default) or binary output.  Binary output is
	// length-prefixed serialized cuboid batches.
	Format string `toml:"format"`

	// BatchCompression applies to binary output batches: none, snappy,
	// lz4, or gzip.
	BatchCompression string `toml:"batch_compression"`

	// BatchChecksum adds a CRC32 checksum to binary output batches.
	BatchChecksum bool `toml:"batch_checksum"`

	// StreamDepthMerge enables Z stacking in the stream-rlexy strategy.
	StreamDepthMerge bool `toml:"stream_depth_merge"`

	// CheckInvariants verifies every parent-block strategy batch against
	// the covering invariants before emission.  The stream-rlexy path is
	// not checked.  Slow; intended for debugging.
	CheckInvariants bool `toml:"check_invariants"`

	Logging voxpack.LogConfig `toml:"logging"`
}

// DefaultConfig returns the configuration used when no file or flags are
// given.
func DefaultConfig() Config {
	return Config{
		Strategy: strategy.GreedyName,
		Format:   FormatCSV,
	}
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("could not decode config file %q: %v", path, err)
	}
	return c, nil
}

// batchCompression maps the config string to a serialization constant.
func (c Config) batchCompression() (voxpack.Compression, error) {
	switch c.BatchCompression {
	case "", "none":
		return voxpack.Uncompressed, nil
	case "snappy":
		return voxpack.Snappy, nil
	case "lz4":
		return voxpack.LZ4, nil
	case "gzip":
		return voxpack.Gzip, nil
	default:
		return 0, fmt.Errorf("unknown batch compression %q", c.BatchCompression)
	}
}
