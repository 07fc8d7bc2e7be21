package connection

import "crypto/tls"

// Option configures Dial and NewHTTPClient.
type Option func(*options)

type options struct {
	tlsConfig *tls.Config
}

// WithTLSConfig sets the TLS configuration for wss:// and https://
// servers. A nil config keeps the Go defaults.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
