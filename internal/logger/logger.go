package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 统一日志接口，键值对参数成对出现
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Err(err error, msg string, kv ...any)
	With(kv ...any) Logger
}

// Options 日志初始化选项
type Options struct {
	Level   string   // debug / info / warn / error
	Writers []string // console / file
	File    string   // 文件输出路径，Writers 含 file 时生效
}

type zeroLogger struct {
	l zerolog.Logger
}

// New 创建 zerolog 实现的日志器
func New(opts Options) Logger {
	var ws []io.Writer
	for _, w := range opts.Writers {
		switch w {
		case "console":
			ws = append(ws, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		case "file":
			file := opts.File
			if file == "" {
				file = "pwdriver.log"
			}
			ws = append(ws, &lumberjack.Logger{Filename: file, MaxSize: 20, MaxBackups: 3, MaxAge: 7})
		}
	}
	if len(ws) == 0 {
		ws = append(ws, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(ws...)).Level(lvl).With().Timestamp().Logger()
	return &zeroLogger{l: zl}
}

// NewNop 创建不输出任何内容的日志器，主要用于测试
func NewNop() Logger {
	return &zeroLogger{l: zerolog.Nop()}
}

func (z *zeroLogger) Debug(msg string, kv ...any) { fields(z.l.Debug(), kv).Msg(msg) }
func (z *zeroLogger) Info(msg string, kv ...any)  { fields(z.l.Info(), kv).Msg(msg) }
func (z *zeroLogger) Warn(msg string, kv ...any)  { fields(z.l.Warn(), kv).Msg(msg) }
func (z *zeroLogger) Error(msg string, kv ...any) { fields(z.l.Error(), kv).Msg(msg) }

func (z *zeroLogger) Err(err error, msg string, kv ...any) {
	fields(z.l.Error().Err(err), kv).Msg(msg)
}

func (z *zeroLogger) With(kv ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(k, kv[i+1])
	}
	return &zeroLogger{l: ctx.Logger()}
}

// fields 将键值对附加到日志事件，键必须是字符串
func fields(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(k, kv[i+1])
	}
	return e
}
