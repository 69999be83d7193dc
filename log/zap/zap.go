// Package zap adapts a *zap.Logger to hashmirror.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/hashmirror"
)

var _ hashmirror.Logger = Logger{}

// Logger forwards cache events to L. Fields are emitted in key order.
type Logger struct{ L *zap.Logger }

// New names the logger "hashmirror". A nil l yields a no-op zap logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("hashmirror")}
}

func (z Logger) Debug(msg string, f hashmirror.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f hashmirror.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f hashmirror.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f hashmirror.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f hashmirror.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			// zap.Error always names the field "error"
			out = append(out, zap.NamedError(k, v))
		case string:
			out = append(out, zap.String(k, v))
		case int:
			out = append(out, zap.Int(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
