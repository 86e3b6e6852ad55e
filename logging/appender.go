package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the timestamp layout of console and test output.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// formatLine renders an entry as tab separated time, level, logger name, caller and message,
// followed by the fields as one JSON object when there are any. The line is returned even when
// the fields fail to encode.
func formatLine(entry zapcore.Entry, fields []zapcore.Field, keepEmptyName bool) (string, error) {
	parts := []string{entry.Time.Format(DefaultTimeFormatStr), strings.ToUpper(entry.Level.String())}
	if entry.LoggerName != "" || keepEmptyName {
		parts = append(parts, entry.LoggerName)
	}
	if entry.Caller.Defined {
		parts = append(parts, callerToString(&entry.Caller))
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	// An empty entry makes the encoder emit only the fields, in order.
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(parts, buf.String()), "\t"), nil
}

// callerToString returns "<package>/<file>:<line>".
func callerToString(caller *zapcore.EntryCaller) string {
	file := caller.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		if idx = strings.LastIndexByte(file[:idx], '/'); idx >= 0 {
			file = file[idx+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, caller.Line)
}

// ConsoleAppender writes human readable lines to a writer.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender returns an appender writing to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender returns an appender writing to writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields, false)
	fmt.Fprintln(appender.Writer, line)
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// FileAppender writes console formatted lines to a file that is rotated once it grows past a
// size limit.
type FileAppender struct {
	out *lumberjack.Logger
}

// NewFileAppender returns an appender writing to path. The file is rotated at maxSizeMB
// megabytes and at most maxBackups old files are kept, gzipped when compress is set.
func NewFileAppender(path string, maxSizeMB, maxBackups int, compress bool) *FileAppender {
	return &FileAppender{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   compress,
	}}
}

// Write outputs the log entry to the file.
func (fa *FileAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields, false)
	if _, werr := fmt.Fprintln(fa.out, line); werr != nil {
		return werr
	}
	return err
}

// Sync is a no-op; lumberjack does not buffer.
func (fa *FileAppender) Sync() error {
	return nil
}

// Close closes the current file. A later Write reopens it.
func (fa *FileAppender) Close() error {
	return fa.out.Close()
}

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender logging through tb.Log, so lines stay attached to the
// right test even when tests run in parallel. tb.Helper keeps Go from prefixing every line
// with this file's location.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	line, err := formatLine(entry, fields, true)
	tapp.tb.Log(line)
	return err
}

func (tapp *testAppender) Sync() error {
	return nil
}
