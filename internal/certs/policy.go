// Package certs decides which TLS certificate failures the shell tolerates.
package certs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
)

// Policy is the certificate-exception allow-list
type Policy struct {
	// StagingHost is matched as a substring of the host name
	StagingHost string
	// Roots overrides the system pool; nil means system roots
	Roots  *x509.CertPool
	Logger logging.Logger
}

// NewPolicy creates a policy exempting stagingHost
func NewPolicy(stagingHost string, logger logging.Logger) *Policy {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Policy{StagingHost: stagingHost, Logger: logger}
}

// Allow reports whether a certificate error for host may be overridden
func (p *Policy) Allow(host string) bool {
	if p.StagingHost == "" || host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(host), strings.ToLower(p.StagingHost))
}

// ClientConfig returns a TLS config for connections to host. Chains are
// verified as usual; a failing chain is accepted only when Allow(host).
func (p *Policy) ClientConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		// Verification happens in VerifyConnection so the allow-list can
		// override a failure for this host only.
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return p.verify(host, cs)
		},
	}
}

func (p *Policy) verify(host string, cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return shellerrors.NewWithContext("certs.Verify", errors.New("no peer certificates"),
			shellerrors.ErrCodeCertificate, map[string]string{"host": host})
	}

	opts := x509.VerifyOptions{
		Roots:         p.Roots,
		DNSName:       host,
		Intermediates: x509.NewCertPool(),
	}
	for _, cert := range cs.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}

	_, err := cs.PeerCertificates[0].Verify(opts)
	if err == nil {
		return nil
	}

	if p.Allow(host) {
		p.Logger.Warn("Accepting invalid certificate for allow-listed host", "host", host, "error", err.Error())
		return nil
	}

	p.Logger.Warn("Rejecting invalid certificate", "host", host, "error", err.Error())
	return shellerrors.NewWithContext("certs.Verify", err, shellerrors.ErrCodeCertificate, map[string]string{"host": host})
}

// Transport returns an http.Transport whose TLS connections follow the policy
func (p *Policy) Transport() *http.Transport {
	dialer := &net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: p.ClientConfig(host)}
		return tlsDialer.DialContext(ctx, network, addr)
	}
	return transport
}
