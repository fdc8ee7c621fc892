package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates the logging verbosity levels supported by the application.
type LogLevel string

// LogFormat enumerates the logging output formats supported by the application.
type LogFormat string

const (
	// LogLevelDebug enables debug, info, warn, and error events.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables info, warn, and error events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warn and error events.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables error events only.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits machine-readable JSON log lines.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable console log lines.
	LogFormatConsole LogFormat = "console"

	unsupportedLogLevelMessageConstant  = "unsupported log level %q"
	unsupportedLogFormatMessageConstant = "unsupported log format %q"
	logTimestampKeyConstant             = "timestamp"
	logMessageKeyConstant               = "message"
	logLevelKeyConstant                 = "level"
)

// LoggerOutputs bundles the loggers produced by the factory.
type LoggerOutputs struct {
	// DiagnosticLogger records lifecycle events in the requested format.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger renders operator-facing messages; it is a no-op logger
	// unless the console format is selected.
	ConsoleLogger *zap.Logger
}

// LoggerFactory builds zap loggers for the requested level and format.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory instance.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds the diagnostic and console loggers for the requested level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveZapLevel(requestedLogLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.TimeKey = logTimestampKeyConstant
	encoderConfiguration.MessageKey = logMessageKeyConstant
	encoderConfiguration.LevelKey = logLevelKeyConstant
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	outputSink := zapcore.Lock(os.Stderr)

	switch requestedLogFormat {
	case LogFormatStructured:
		structuredCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), outputSink, zapLevel)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(structuredCore),
			ConsoleLogger:    zap.NewNop(),
		}, nil
	case LogFormatConsole:
		consoleEncoderConfiguration := encoderConfiguration
		consoleEncoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), outputSink, zapLevel)
		consoleLogger := zap.New(consoleCore)
		return LoggerOutputs{
			DiagnosticLogger: consoleLogger,
			ConsoleLogger:    consoleLogger,
		}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatMessageConstant, string(requestedLogFormat))
	}
}

func resolveZapLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	switch requestedLogLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelMessageConstant, string(requestedLogLevel))
	}
}
