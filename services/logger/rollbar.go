package logsvc

import (
	"context"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a local zap logger.
// Reporting is disabled when no token is configured.
type RollbarLogger struct {
	local *zap.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZapLogger builds the local console logger. debug lowers the level to DEBUG.
func NewZapLogger(debug bool) *zap.Logger {
	conf := zap.NewProductionConfig()
	conf.Encoding = "console"
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	conf.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if debug {
		conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := conf.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func NewRollbarLogger(local *zap.Logger, conf *core.Config) *RollbarLogger {
	if local == nil {
		local = zap.NewNop()
	}
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{local: local}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Sync flushes both sinks. Call it before the process exits.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.local.Sync()
}

// report is one rollbar item. The person rides on ctx so concurrent calls never share it.
type report struct {
	ctx    context.Context
	err    error
	extras map[string]interface{}
}

func (r report) args(msg string) []interface{} {
	args := []interface{}{r.ctx, msg}
	if r.err != nil {
		args = append(args, r.err)
	}
	if len(r.extras) > 0 {
		args = append(args, r.extras)
	}
	return args
}

// prepare splits args into the rollbar report and zap fields.
// expected fmt: msg | error, map[string]interface{}, session.Identity
func (l RollbarLogger) prepare(msg string, args []interface{}) (report, []zap.Field) {
	rep := report{ctx: context.Background()}
	var usrSet bool
	fields := make([]zap.Field, 0, len(args))

	setPerson := func(id session.Identity) {
		fields = append(fields, zap.String("user", id.Username))
		if !usrSet { // only set one identity
			rep.ctx = rollbar.NewPersonContext(rep.ctx, &rollbar.Person{
				Id:       strconv.FormatInt(id.ID, 10),
				Username: id.Username,
				Email:    id.Email,
			})
			usrSet = true
		}
	}
	extra := func(k string, v interface{}) {
		if rep.extras == nil {
			rep.extras = make(map[string]interface{})
		}
		rep.extras[k] = v
	}
	for _, arg := range args {
		switch a := arg.(type) {
		case session.Identity:
			setPerson(a)
		case *session.Identity:
			if a != nil {
				setPerson(*a)
			}
		case error:
			if rep.err == nil {
				rep.err = a
			}
			fields = append(fields, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				extra(k, v)
				fields = append(fields, zap.Any(k, v))
			}
		default:
			extra("extra", a)
			fields = append(fields, zap.Any("extra", a))
		}
	}
	return rep, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	rollbar.Log(rollbar.DEBUG, rep.args(msg)...)
	l.local.Debug(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	rollbar.Log(rollbar.INFO, rep.args(msg)...)
	l.local.Info(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	rollbar.Log(rollbar.WARN, rep.args(msg)...)
	l.local.Warn(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	rollbar.Log(rollbar.ERR, rep.args(msg)...)
	l.local.Error(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	rollbar.Log(rollbar.CRIT, rep.args(msg)...)
	rollbar.Wait()
	l.local.Fatal(msg, fields...)
}
