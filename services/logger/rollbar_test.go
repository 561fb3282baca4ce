package logsvc

import (
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

func newObservedLogger(t *testing.T) (*RollbarLogger, *observer.ObservedLogs) {
	t.Helper()
	zcore, logs := observer.New(zap.DebugLevel)
	logger := NewRollbarLogger(zap.New(zcore), &core.Config{Env: "TEST", TestMode: true})
	return logger, logs
}

func TestRollbarLoggerFields(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Error("could not persist session",
		errors.New("disk full"),
		map[string]interface{}{"endpoint": "GET /tasks"},
		&session.Identity{ID: 3, Username: "ana"},
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "could not persist session", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "disk full", ctx["error"])
	assert.Equal(t, "GET /tasks", ctx["endpoint"])
	assert.Equal(t, "ana", ctx["user"])
}

func TestRollbarLoggerLevels(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Debug("d")
	logger.Info("i", session.Identity{Username: "luis"})
	logger.Warn("w", 42)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, "luis", entries[1].ContextMap()["user"])
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(42), entries[2].ContextMap()["extra"])
}

func TestNewZapLogger(t *testing.T) {
	assert.True(t, NewZapLogger(true).Core().Enabled(zap.DebugLevel))
	assert.False(t, NewZapLogger(false).Core().Enabled(zap.DebugLevel))
}

func TestRollbarPersonIsPerReport(t *testing.T) {
	logger, _ := newObservedLogger(t)

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			rep, _ := logger.prepare("request failed", []interface{}{
				&session.Identity{ID: id, Username: "user" + strconv.FormatInt(id, 10)},
				errors.New("boom"),
			})
			p, ok := rollbar.PersonFromContext(rep.ctx)
			if assert.True(t, ok) {
				assert.Equal(t, strconv.FormatInt(id, 10), p.Id)
				assert.Equal(t, "user"+strconv.FormatInt(id, 10), p.Username)
			}
		}(i)
	}
	wg.Wait()

	rep, _ := logger.prepare("anonymous", nil)
	_, ok := rollbar.PersonFromContext(rep.ctx)
	assert.False(t, ok)
}

func TestRollbarReportArgs(t *testing.T) {
	logger, _ := newObservedLogger(t)
	first := errors.New("first")

	rep, _ := logger.prepare("msg", []interface{}{first, errors.New("second"), map[string]interface{}{"k": "v"}, 42})
	assert.Equal(t, first, rep.err)
	assert.Equal(t, map[string]interface{}{"k": "v", "extra": 42}, rep.extras)

	args := rep.args("msg")
	require.Len(t, args, 4)
	assert.Equal(t, "msg", args[1])

	bare, _ := logger.prepare("plain", nil)
	assert.Len(t, bare.args("plain"), 2, "no nil error or empty extras are passed on")
}
