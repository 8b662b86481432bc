// Package state defines shared program state.
package state

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nicolasbarbe/cpss-newsletter/internal/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	// used by convert subcommand
	Overwrite bool
	MJMLOnly  bool

	start         time.Time
	logCloser     io.Closer
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now(), Log: zap.NewNop()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// SetLogger installs the program logger and redirects the standard library
// log to it. closer is closed by Close.
func (e *LocalEnv) SetLogger(log *zap.Logger, closer io.Closer) {
	e.Log = log
	e.logCloser = closer
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

// Close flushes and closes the logger.
func (e *LocalEnv) Close() (err error) {
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
	if e.Log != nil {
		// syncing console outputs fails on some systems, not worth reporting
		_ = e.Log.Sync()
	}
	if e.logCloser != nil {
		err = multierr.Append(err, e.logCloser.Close())
		e.logCloser = nil
	}
	return err
}
