package logger

import (
	"BuzzDaddy/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter gin 访问日志的输出目标
var LogWriter io.Writer = os.Stdout

// InitLogger 初始化全局 slog：stdout + 可选滚动文件 + 可选 Logstash
func InitLogger(cfg *config.Config) {
	opts := &log.HandlerOptions{Level: log.LevelInfo}
	handlers := []log.Handler{log.NewJSONHandler(os.Stdout, opts)}
	writers := []io.Writer{os.Stdout}

	if cfg.LogFile.Path != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.LogFile.Path,
			MaxSize:    cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxAgeDays,
			Compress:   true,
		}
		handlers = append(handlers, log.NewJSONHandler(fileWriter, opts))
		writers = append(writers, fileWriter)
	}

	var dialErr error
	if cfg.Logstash.Address != "" {
		conn, err := net.Dial("tcp", cfg.Logstash.Address)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, opts).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Logstash.Index),
					log.String("log_token", cfg.Logstash.Token),
				})
			handlers = append(handlers, &RemoteFilterHandler{next: hRemote})
			writers = append(writers, conn)
		}
		dialErr = err
	}

	var finalHandler log.Handler = handlers[0]
	if len(handlers) > 1 {
		finalHandler = &TeeHandler{handlers: handlers}
	}
	LogWriter = io.MultiWriter(writers...)

	log.SetDefault(log.New(&ContextHandler{finalHandler}))

	if dialErr != nil {
		log.Warn("Failed to connect to Logstash, remote logging disabled", "err", dialErr)
	}
}
