package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Opt defines a functional option type used to configure a *tls.Config.
type Opt func(*tls.Config) error

// New creates a TLS configuration with TLS 1.2 as the floor and applies opts.
func New(opts ...Opt) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithCACertPath adds every certificate found in the PEM file at path to the
// root pool. The system pool is used as the base when it is available.
//
// The file must contain at least one block with the type "CERTIFICATE".
func WithCACertPath(path string) Opt {
	return func(cfg *tls.Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if cfg.RootCAs == nil {
			pool, err := x509.SystemCertPool()
			if err != nil || pool == nil {
				pool = x509.NewCertPool()
			}
			cfg.RootCAs = pool
		}

		added := 0
		for {
			var block *pem.Block
			block, data = pem.Decode(data)
			if block == nil {
				break
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return fmt.Errorf("parse CA certificate %s: %w", path, err)
			}
			cfg.RootCAs.AddCert(cert)
			added++
		}

		if added == 0 {
			return fmt.Errorf("no CA certificates found in %s", path)
		}
		return nil
	}
}

// WithClientKeyPair loads a PEM certificate and private key for mutual TLS.
func WithClientKeyPair(certPath, keyPath string) Opt {
	return func(cfg *tls.Config) error {
		if certPath == "" || keyPath == "" {
			return errors.New("client certificate and key must be set together")
		}
		pair, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return fmt.Errorf("load client key pair: %w", err)
		}
		cfg.Certificates = append(cfg.Certificates, pair)
		return nil
	}
}

// WithMinVersion raises the minimum accepted protocol version.
func WithMinVersion(version uint16) Opt {
	return func(cfg *tls.Config) error {
		if version < tls.VersionTLS12 {
			return fmt.Errorf("tls version %#x is below TLS 1.2", version)
		}
		cfg.MinVersion = version
		return nil
	}
}
