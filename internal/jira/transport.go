package jira

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// NewHTTPTransport returns a tuned Transport with optional TLS skipping.
func NewHTTPTransport(skipInsecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipInsecure, // NOTE: intended for dev only
		},

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPClient builds an http.Client with a pooled transport and a hard per-request cap.
func NewHTTPClient(timeout time.Duration, skipInsecure bool) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewHTTPTransport(skipInsecure),
	}
}
