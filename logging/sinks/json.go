package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gas-station-sim/server/logging"
)

// JSONSink appends events to a file as newline-delimited JSON, flushing in
// batches.
type JSONSink struct {
	mu        sync.Mutex
	file      *os.File
	batch     []logging.Event
	maxBatch  int
	lastFlush time.Time
	interval  time.Duration
}

func NewJSONSink(cfg logging.JSONConfig) (*JSONSink, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("json sink requires a file path")
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open json sink file: %w", err)
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 32
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &JSONSink{
		file:      file,
		batch:     make([]logging.Event, 0, maxBatch),
		maxBatch:  maxBatch,
		lastFlush: time.Now(),
		interval:  interval,
	}, nil
}

func (s *JSONSink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = append(s.batch, event)
	if len(s.batch) >= s.maxBatch || time.Since(s.lastFlush) >= s.interval {
		return s.flushLocked()
	}
	return nil
}

func (s *JSONSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flushErr := s.flushLocked()
	closeErr := s.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (s *JSONSink) flushLocked() error {
	for _, event := range s.batch {
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.Type, err)
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write event %s: %w", event.Type, err)
		}
	}
	s.batch = s.batch[:0]
	s.lastFlush = time.Now()
	return nil
}
