package modbus

import (
	"time"

	"github.com/goburrow/serial"
)

// ClientProviderOption client provider option for user.
type ClientProviderOption func(ClientProvider)

// WithLogProvider set logger provider.
func WithLogProvider(provider LogProvider) ClientProviderOption {
	return func(p ClientProvider) {
		p.setLogProvider(provider)
	}
}

// WithEnableLogger enable log output when you has set logger.
func WithEnableLogger() ClientProviderOption {
	return func(p ClientProvider) {
		p.LogMode(true)
	}
}

// WithSerialConfig set serial config, only valid on serial.
func WithSerialConfig(config serial.Config) ClientProviderOption {
	return func(p ClientProvider) {
		p.setSerialConfig(config)
	}
}

// WithTCPTimeout set tcp Connect timeout, only valid on TCP.
func WithTCPTimeout(t time.Duration) ClientProviderOption {
	return func(p ClientProvider) {
		p.setTCPTimeout(t)
	}
}

// WithTimeout set the per request timeout, default DefaultTimeout.
func WithTimeout(t time.Duration) ClientProviderOption {
	return func(p ClientProvider) {
		p.setTimeout(t)
	}
}

// WithCRC16Variant set the rtu crc variant, default CRC16Even, only valid on RTU.
func WithCRC16Variant(v CRC16Variant) ClientProviderOption {
	return func(p ClientProvider) {
		p.setCRC16Variant(v)
	}
}

// WithInterFrameDelay set the minimum silence between two serial frames,
// default SerialDefaultInterFrameDelay, t3.5 applies when it is longer.
func WithInterFrameDelay(t time.Duration) ClientProviderOption {
	return func(p ClientProvider) {
		p.setInterFrameDelay(t)
	}
}
