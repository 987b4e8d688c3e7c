package utils

import (
	"fmt"
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// ConsoleWriter serializes whole messages written to a shared terminal stream.
// Destinations that buffer output are flushed after each message so a prompt
// is visible before input is read.
type ConsoleWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

// NewConsoleWriter wraps destination. A nil destination discards output and an
// existing ConsoleWriter is returned unchanged.
func NewConsoleWriter(destination io.Writer) *ConsoleWriter {
	if existing, isConsoleWriter := destination.(*ConsoleWriter); isConsoleWriter {
		return existing
	}
	if destination == nil {
		destination = io.Discard
	}
	return &ConsoleWriter{destination: destination}
}

// Write emits data as one message.
func (consoleWriter *ConsoleWriter) Write(data []byte) (int, error) {
	consoleWriter.mutex.Lock()
	defer consoleWriter.mutex.Unlock()

	bytesWritten, writeError := consoleWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if bufferedDestination, buffers := consoleWriter.destination.(flusher); buffers {
		return bytesWritten, bufferedDestination.Flush()
	}
	return bytesWritten, nil
}

// Printf formats a message and emits it with a single Write.
func (consoleWriter *ConsoleWriter) Printf(format string, arguments ...any) error {
	_, writeError := consoleWriter.Write([]byte(fmt.Sprintf(format, arguments...)))
	return writeError
}
