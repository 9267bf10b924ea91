package voxpack

import "testing"

func TestRunLogCounters(t *testing.T) {
	l := NewRunLog()
	l.AddCuboids(3)
	l.AddCuboids(0)
	l.AddCuboids(5)
	if l.Cuboids() != 8 {
		t.Errorf("expected 8 cuboids counted, got %d", l.Cuboids())
	}
	l.ChunkLoaded(0, 64)
	l.ChunkLoaded(1, 64)
	if l.chunks != 2 {
		t.Errorf("expected 2 chunks counted, got %d", l.chunks)
	}
}

func TestRunLogNilChunkLoaded(t *testing.T) {
	// Tilers constructed without progress logging pass a nil run log.
	var l *RunLog
	l.ChunkLoaded(0, 64)
}

func TestSetLoggerWithoutFile(t *testing.T) {
	var c LogConfig
	c.SetLogger()
	if logFile != nil {
		t.Errorf("empty config should not open a log file")
	}
	CloseLogger()
}
