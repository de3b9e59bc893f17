package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSink appends events to a JSONL file, one event per line.
// Emit cannot fail; the first write error is kept and returned by Close.
type FileSink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
	err    error
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	return &FileSink{path: path, file: file, writer: bufio.NewWriter(file)}, nil
}

// Emit implements Sink.
func (s *FileSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil || s.file == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		s.err = fmt.Errorf("failed to marshal event: %w", err)
		return
	}
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		s.err = fmt.Errorf("failed to write event: %w", err)
	}
}

// Close flushes buffered events and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return s.err
	}
	if err := s.writer.Flush(); err != nil && s.err == nil {
		s.err = fmt.Errorf("failed to flush events: %w", err)
	}
	if err := s.file.Close(); err != nil && s.err == nil {
		s.err = fmt.Errorf("failed to close events file: %w", err)
	}
	s.file = nil
	return s.err
}

// Path returns the events file path.
func (s *FileSink) Path() string {
	return s.path
}

// ReadEvents reads a JSONL events file.
func ReadEvents(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("failed to parse event on line %d: %w", line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}
	return events, nil
}
