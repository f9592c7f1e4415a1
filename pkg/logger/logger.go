// Package logger はコンポーネント名付きの構造化ログを提供する
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
)

// Init はログレベルと出力形式（json / console）を設定する
func Init(level, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter は出力先を指定して初期化する
func InitWithWriter(w io.Writer, level, format string) {
	var out io.Writer = w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: w != os.Stderr}
	}

	l := zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))

	mu.Lock()
	base = l
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func emit(ev *zerolog.Event, component, message string, fields map[string]interface{}) {
	if ev == nil {
		return
	}
	if component != "" {
		ev = ev.Str("component", component)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

// DebugCF はデバッグログを出力
func DebugCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Debug(), component, message, fields)
}

// InfoCF は情報ログを出力
func InfoCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Info(), component, message, fields)
}

// WarnCF は警告ログを出力
func WarnCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Warn(), component, message, fields)
}

// ErrorCF はエラーログを出力
func ErrorCF(component, message string, fields map[string]interface{}) {
	l := current()
	emit(l.Error(), component, message, fields)
}
