package modbus

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// 内部调试实现
type clogs struct {
	logger LogProvider
	// is log output enabled,1: enable, 0: disable
	hasLog uint32
}

// newClogWithPrefix new clog with prefix
func newClogWithPrefix(prefix string) clogs {
	return clogs{
		logger: newDefaultLogger(prefix),
	}
}

// LogMode set enable or disable log output when you has set logger
func (sf *clogs) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&sf.hasLog, 1)
	} else {
		atomic.StoreUint32(&sf.hasLog, 0)
	}
}

// setLogProvider set logger provider
func (sf *clogs) setLogProvider(p LogProvider) {
	if p != nil {
		sf.logger = p
	}
}

// Errorf Log ERROR level message.
func (sf *clogs) Errorf(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.hasLog) == 1 {
		sf.logger.Errorf(format, v...)
	}
}

// Debugf Log DEBUG level message.
func (sf *clogs) Debugf(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.hasLog) == 1 {
		sf.logger.Debugf(format, v...)
	}
}

// zlog LogProvider on top of zerolog
type zlog struct {
	zerolog.Logger
}

var _ LogProvider = (*zlog)(nil)

// default log, human readable on stderr
func newDefaultLogger(prefix string) *zlog {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &zlog{
		zerolog.New(out).With().Timestamp().Str("provider", prefix).Logger(),
	}
}

// NewZerologProvider adapts an application zerolog.Logger to LogProvider.
func NewZerologProvider(l zerolog.Logger) LogProvider {
	return &zlog{l}
}

// Errorf Log ERROR level message.
func (sf *zlog) Errorf(format string, v ...interface{}) {
	sf.Error().Msgf(format, v...)
}

// Debugf Log DEBUG level message.
func (sf *zlog) Debugf(format string, v ...interface{}) {
	sf.Debug().Msgf(format, v...)
}
