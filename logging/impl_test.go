package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
	z string
}

type User struct {
	Name string
}

type StructWithStruct struct {
	x int
	Y User
	z string
}

type StructWithAnonymousStruct struct {
	x int
	Y struct {
		Y1 string
	}
	Z string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	// `Helper` will result in test failures being associated with the callers line number. It's
	// more useful to report which `assertLogMatches` call failed rather than which assertion
	// inside this function. Maybe.
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	// Verify the filename matches exactly.
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	// Verify the line number is in fact a number, but no more.
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	// Structured logging with the "w" API. E.g: `Debugw` has an extra tab delimited output.
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[4]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[4]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newTestImpl(out *bytes.Buffer) *impl {
	return newImpl("", DEBUG, false, NewWriterAppender(out))
}

func TestConsoleOutputFormat(t *testing.T) {
	// A logger object that will write to the `notStdout` buffer.
	notStdout := &bytes.Buffer{}
	logger := newTestImpl(notStdout)

	logger.Info("impl Info log")
	// Note the use of tabs between the date, level, file location and log line. The
	// `assertLogMatches` helper will also deal with the changes to the time/line number.
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	impl Info log`)

	// Using `Infof` substitutes the tail arguments into the leading template string input.
	logger.Infof("impl %s log", "infof")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	logging/impl_test.go:131	impl infof log`)

	// Using `Infow` turns the tail arguments into a map for structured logging.
	logger.Infow("impl logw", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	logging/impl_test.go:132	impl logw	{"key":"value"}`)

	logger.Infow("StructWithStruct", "key", "val", "StructWithStruct", StructWithStruct{1, User{"alice"}, "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:123	StructWithStruct	{"StructWithStruct":{"Y":{"Name":"alice"}},"key":"val"}`)

	logger.Infow("BasicStruct", "implOneKey", "1val", "BasicStruct", BasicStruct{1, "alice", "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:125	BasicStruct	{"BasicStruct":{"X":1},"implOneKey":"1val"}`)
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newTestImpl(notStdout)
	logger.SetLevel(WARN)

	logger.Info("dropped")
	logger.Debugw("dropped too", "k", 1)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warn("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	logging/impl_test.go:140	kept`)

	level, err := LevelFromString("ERROR")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubloggerNaming(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("viewer").Sublogger("gizmo")
	sub.Warnw("no binding", "target", 3)

	entries := observed.FilterMessage("no binding").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "viewer.gizmo")
	test.That(t, entries[0].ContextMap()["target"], test.ShouldEqual, int64(3))
}

func TestRegistryPatterns(t *testing.T) {
	registry := NewRegistry()
	gizmoLogger := NewBlankLogger("viewer.gizmo")
	potreeLogger := NewBlankLogger("viewer.potree")
	test.That(t, registry.Register("viewer.gizmo", gizmoLogger), test.ShouldBeNil)
	test.That(t, registry.Register("viewer.potree", potreeLogger), test.ShouldBeNil)

	warn := NewTestLogger(t)
	err := registry.UpdateConfig([]LoggerPatternConfig{
		{Pattern: "viewer.*", Level: "warn"},
		{Pattern: "viewer.potree", Level: "debug"},
		{Pattern: "bad pattern!", Level: "debug"},
	}, warn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gizmoLogger.GetLevel(), test.ShouldEqual, WARN)
	test.That(t, potreeLogger.GetLevel(), test.ShouldEqual, DEBUG)

	late := NewBlankLogger("viewer.align")
	test.That(t, registry.Register("viewer.align", late), test.ShouldBeNil)
	test.That(t, late.GetLevel(), test.ShouldEqual, WARN)

	got, ok := registry.LoggerNamed("viewer.align")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, late)
}

func TestDebugModeContext(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(INFO)

	logger.CDebugw(context.Background(), "quiet")
	test.That(t, observed.FilterMessage("quiet").Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, GetName(ctx), test.ShouldHaveLength, 8)
	logger.CDebugw(ctx, "loud", "dangling")
	entries := observed.FilterMessage("loud").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["dangling"], test.ShouldNotBeNil)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotator.log")
	appender := NewFileAppender(path, 1, 1, false)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)

	logger.Infow("box placed", "name", "ANT_0")
	logger.Debug("step")
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 2)
	test.That(t, lines[0], test.ShouldContainSubstring, "INFO\tfile\t")
	test.That(t, lines[0], test.ShouldContainSubstring, "box placed\t{\"name\":\"ANT_0\"}")
	test.That(t, lines[1], test.ShouldContainSubstring, "DEBUG")
}
