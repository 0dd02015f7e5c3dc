// ABOUTME: Structured fetch error type with a classified failure kind
// ABOUTME: Maps transport error chains to user-actionable categories and messages

package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Kind categorizes a fetch failure. Each kind implies a different user
// remedy (wrong URL vs. blocked scraping vs. site down).
type Kind int

const (
	KindNetwork Kind = iota
	KindInvalidURL
	KindDNS
	KindCertificate
	KindConnectionRefused
	KindTimeout
	KindHTTPStatus
	KindTooLarge
)

// String returns the kind's identifier.
func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid-url"
	case KindDNS:
		return "dns"
	case KindCertificate:
		return "certificate"
	case KindConnectionRefused:
		return "connection-refused"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http-status"
	case KindTooLarge:
		return "too-large"
	default:
		return "network"
	}
}

// Error is a classified fetch failure. It always carries the offending URL.
type Error struct {
	URL    string
	Kind   Kind
	Status int // HTTP status, set only for KindHTTPStatus
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns a short user-facing description of the failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInvalidURL:
		return "the URL is not valid"
	case KindDNS:
		return "could not resolve the host name; check the URL"
	case KindCertificate:
		return "the site's TLS certificate could not be verified"
	case KindConnectionRefused:
		return "the server refused the connection; the site may be down"
	case KindTimeout:
		return "the request timed out"
	case KindHTTPStatus:
		switch e.Status {
		case http.StatusForbidden:
			return "the server rejected the request (403); it may block feed readers"
		case http.StatusNotFound:
			return "the feed was not found (404); check the URL"
		default:
			return fmt.Sprintf("the server returned HTTP %d", e.Status)
		}
	case KindTooLarge:
		return "the response was too large to process"
	default:
		return "a network error occurred"
	}
}

// Classify maps an error chain from the HTTP client to a Kind. It inspects
// typed errors only, never message text.
func Classify(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var certVerifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certVerifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) {
		return KindCertificate
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindNetwork
}
