// Package logger は構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はslog.Loggerを生成して返す。
// development=trueの場合は人間が読みやすいテキスト形式でデバッグレベルまで出力し、
// それ以外はJSON形式の構造化ログを出力する。
func Setup(w io.Writer, development bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if development {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetupDefault はグローバルロガーを設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, development bool) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, development))
}
