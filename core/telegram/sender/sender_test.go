package sender

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func dialErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	s := New(Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	err := s.Do(context.Background(), "send", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return dialErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, s.ErrorCount())
}

func TestDoStopsOnPermanentError(t *testing.T) {
	s := New(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	calls := 0
	want := errors.New("bad request")
	err := s.Do(context.Background(), "send", "sendMessage", func() error {
		calls++
		return want
	})
	require.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), s.ErrorCount())
}

func TestDoRejectsNilRun(t *testing.T) {
	assert.Error(t, New(Options{}).Do(context.Background(), "send", "", nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "timeout", Classify(context.DeadlineExceeded))
	assert.Equal(t, "dial", Classify(dialErr()))
	assert.Equal(t, "dns", Classify(&net.DNSError{Err: "no such host", Name: "api.telegram.org"}))
	assert.Equal(t, "http_4xx", Classify(&tele.Error{Code: 400, Description: "Bad Request: chat not found"}))
	assert.Equal(t, "http_5xx", Classify(errors.New("telegram: internal error (502)")))
	assert.Equal(t, "unknown", Classify(errors.New("boom")))
}

func TestSanitizeError(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AAH-x_y/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, SanitizeError(err))
}
