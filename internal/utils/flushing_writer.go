package utils

import "io"

type flushableWriter interface {
	Flush() error
}

type flushingWriter struct {
	destination io.Writer
}

// NewFlushingWriter wraps the destination writer so every write is flushed
// immediately when the destination supports flushing.
func NewFlushingWriter(destination io.Writer) io.Writer {
	return &flushingWriter{destination: destination}
}

// Write forwards the payload to the destination and flushes it when supported.
func (writer *flushingWriter) Write(payload []byte) (int, error) {
	bytesWritten, writeError := writer.destination.Write(payload)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushCapable, flushSupported := writer.destination.(flushableWriter); flushSupported {
		if flushError := flushCapable.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}
