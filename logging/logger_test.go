package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Interface compliance (compile-time assertion)
var (
	_ Logger              = (*ConvoLogger)(nil)
	_ Logger              = NoOpLogger{}
	_ ConnectorCallLogger = (*ConvoLogger)(nil)
)

func newBufferLogger(level LogLevel) (*ConvoLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf}), buf
}

func TestConvoLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Info("too quiet")
	l.Warn("loud enough")

	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "loud enough")
}

func TestConvoLogger_LogConnectorCall(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.LogConnectorCall("redmine", "POST /issues.json", 12*time.Millisecond, true, nil)
	assert.Contains(t, buf.String(), "Connector call completed")
	assert.Contains(t, buf.String(), "redmine")

	buf.Reset()
	l.LogConnectorCall("jds", "inject-event", time.Millisecond, false, errors.New("unexpected status 503"))
	assert.Contains(t, buf.String(), "Connector call failed")
	assert.Contains(t, buf.String(), "unexpected status 503")
}

func TestConvoLogger_LogTurn(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.LogTurn("input.welcome", 2, 5*time.Millisecond, true, nil)
	assert.Contains(t, buf.String(), "Turn completed")
	assert.Contains(t, buf.String(), "input.welcome")
}

func TestRecordConnectorCall_ForwardsToConvoLogger(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	RecordConnectorCall(l, "webexconnect", "otp-sms", time.Now(), nil)
	assert.Contains(t, buf.String(), "Connector call completed")
	assert.Contains(t, buf.String(), "webexconnect")
}

func TestRecordConnectorCall_PlainLoggerIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordConnectorCall(NoOpLogger{}, "redmine", "GET /users.json", time.Now(), nil)
	})
}
