package compressor

import (
	"fmt"
	"io"

	"github.com/janelia-flyem/voxpack/strategy"
	"github.com/janelia-flyem/voxpack/stream"
	"github.com/janelia-flyem/voxpack/voxpack"
)

// sink abstracts the CSV and binary emitters.
type sink interface {
	EmitAll([]voxpack.Cuboid) error
	Close() error
}

// Run compresses one labeled voxel stream into cuboid records.  It owns
// both streams for the duration of the call.
func Run(in io.Reader, out io.Writer, cfg Config) error {
	runLog := voxpack.NewRunLog()

	fr, err := stream.NewFrameReader(in)
	if err != nil {
		return err
	}
	if err := fr.Init(); err != nil {
		return err
	}
	labels := fr.Labels()

	var csvEmitter *stream.Emitter
	var output sink
	if cfg.Format == FormatBinary {
		compress, err := cfg.batchCompression()
		if err != nil {
			return err
		}
		checksum := voxpack.NoChecksum
		if cfg.BatchChecksum {
			checksum = voxpack.CRC32
		}
		output = stream.NewBinaryEmitter(out, compress, checksum)
	} else {
		csvEmitter = stream.NewEmitter(out, labels, stream.EmitterOptions{
			FlushThreshold: cfg.FlushThresholdBytes,
			CRLF:           cfg.WriteCRLF,
			GzipOutput:     cfg.GzipOutput,
		})
		output = csvEmitter
	}

	if strategy.IsStreaming(cfg.Strategy) {
		err = runStreaming(fr, output, cfg, runLog)
	} else {
		err = runTiled(fr, output, cfg, runLog)
	}
	if err != nil {
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}

	var bytesWritten int64
	if csvEmitter != nil {
		bytesWritten = csvEmitter.BytesWritten()
	}
	runLog.Finish(fr.RowsRead(), bytesWritten)
	return nil
}

// runTiled materializes parent blocks and covers each label in turn.
func runTiled(fr *stream.FrameReader, output sink, cfg Config, runLog *voxpack.RunLog) error {
	ext := fr.Extents()
	if ext.ZUnbounded {
		return fmt.Errorf("%w: strategy %q requires a finite depth",
			voxpack.ErrHeaderInvalid, cfg.Strategy)
	}
	strat, err := strategy.New(cfg.Strategy, cfg.EnsemblePoolSize)
	if err != nil {
		return err
	}
	labels := fr.Labels()
	tiler := stream.NewTiler(fr, runLog)

	for {
		parent, err := tiler.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		for id := uint32(0); id < uint32(labels.Size()); id++ {
			batch := strat.Cover(parent, id)
			if cfg.CheckInvariants {
				if err := voxpack.CheckCovering(parent, id, batch); err != nil {
					return err
				}
			}
			if err := output.EmitAll(batch); err != nil {
				return err
			}
			runLog.AddCuboids(len(batch))
		}
	}
	return nil
}

// runStreaming feeds rows to the streaming RLE-XY consumer as they
// arrive.  EOF at any row boundary ends the run cleanly with all active
// groups flushed, which is what unbounded streams rely on.
func runStreaming(fr *stream.FrameReader, output sink, cfg Config, runLog *voxpack.RunLog) error {
	ext := fr.Extents()
	streamer := strategy.NewStreamRLEXY(ext, fr.Labels(), cfg.StreamDepthMerge)

	var batch []voxpack.Cuboid
	var z, y int32
	for {
		if !ext.ZUnbounded && z == ext.Z {
			break
		}
		row, err := fr.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := streamer.OnRow(z, y, row, &batch); err != nil {
			return err
		}
		if y++; y == ext.Y {
			streamer.OnSliceEnd(z, &batch)
			y = 0
			z++
		}
		if len(batch) > 0 {
			if err := output.EmitAll(batch); err != nil {
				return err
			}
			runLog.AddCuboids(len(batch))
			batch = batch[:0]
		}
	}

	streamer.Finish(z, &batch)
	if len(batch) > 0 {
		if err := output.EmitAll(batch); err != nil {
			return err
		}
		runLog.AddCuboids(len(batch))
	}
	return nil
}
