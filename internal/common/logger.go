package common

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger 创建控制台日志器，诊断信息统一写到 stderr，stdout 留给运行报告
func NewLogger(level string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo 同 NewLogger，但可以指定输出目标 (测试用)
func NewLoggerTo(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    out != os.Stderr,
	}

	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
