/*
	This file supports logging for compression runs.  There is no logger
	abstraction: a run is a single process over one input and one output
	stream, so the package routes everything through the standard logger,
	optionally redirected to a rotating file.  Run progress is reported
	through RunLog, which counts chunks decoded and cuboids emitted and
	reports them with the rows consumed when the run finishes.
*/

package voxpack

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/lumberjack"
)

// Verbose enables Debugf output, including per-chunk progress.
var Verbose bool

var logFile *lumberjack.Logger

// LogConfig configures an optional rotating log file.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"`
	MaxAge  int `toml:"max_log_age"`
}

// SetLogger redirects log output to a rotating file.  Without a file,
// messages go to stderr via the standard logger.
func (c *LogConfig) SetLogger() {
	if c == nil || c.Logfile == "" {
		return
	}
	logFile = &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(logFile)
}

// CloseLogger closes the rotating log file if one is in use.
func CloseLogger() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Debugf formats its arguments analogous to fmt.Printf and records the
// text at Debug level.  If voxpack.Verbose is not true, these logs
// aren't written.
func Debugf(format string, args ...interface{}) {
	if Verbose {
		log.Printf(" DEBUG "+format, args...)
	}
}

// Infof is like Debugf, but at Info level and written regardless of
// verbose mode.
func Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

// Errorf is like Debugf, but at Error level.
func Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

// RunLog accumulates the progress counters of one compression run and
// stamps its reports with elapsed time since the run started.
type RunLog struct {
	start   time.Time
	chunks  int64
	cuboids int64
}

// NewRunLog starts the clock on a run.
func NewRunLog() *RunLog {
	return &RunLog{start: time.Now()}
}

// ChunkLoaded records one decoded chunk of slices.  Safe on a nil
// receiver for callers that run without progress logging.
func (l *RunLog) ChunkLoaded(nz int32, rows int64) {
	if l == nil {
		return
	}
	l.chunks++
	Debugf("loaded chunk %d (%d rows): %s\n", nz, rows, time.Since(l.start))
}

// AddCuboids counts a batch of emitted cuboids.
func (l *RunLog) AddCuboids(n int) {
	l.cuboids += int64(n)
}

// Cuboids returns the number of cuboids emitted so far.
func (l *RunLog) Cuboids() int64 {
	return l.cuboids
}

// Finish reports the run summary.  bytesWritten of zero omits the size,
// for sinks that don't track it.
func (l *RunLog) Finish(rows, bytesWritten int64) {
	if bytesWritten > 0 {
		Infof("compressed %d rows into %d cuboids (%s written): %s\n",
			rows, l.cuboids, humanize.Bytes(uint64(bytesWritten)), time.Since(l.start))
		return
	}
	Infof("compressed %d rows into %d cuboids: %s\n",
		rows, l.cuboids, time.Since(l.start))
}
