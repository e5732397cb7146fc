package config

import (
	"net/url"
	"time"
)

// Config is the plugin configuration file.
type Config struct {
	Integration Integration `yaml:"integration"`
	Host        Host        `yaml:"host"`
	HTTP        HTTP        `yaml:"http"`
	Dialog      Dialog      `yaml:"dialog"`
	Enricher    Enricher    `yaml:"enricher"`
}

// Integration is the backend that issues user tokens and proxies the JIRA REST API.
type Integration struct {
	URL      string   `yaml:"url"`
	AppID    string   `yaml:"appId"`
	PodToken string   `yaml:"podToken"` // resolved with env:, file: ...
	APIURL   *url.URL `yaml:"-"`        // parsed URL, set by ValidateConfig
}

// Host is the chat host's dialog API.
type Host struct {
	URL    string   `yaml:"url"`
	Token  string   `yaml:"token"` // resolved with env:, file: ...
	APIURL *url.URL `yaml:"-"`
}

// HTTP tunes the outbound clients.
type HTTP struct {
	Timeout       time.Duration `yaml:"timeout"`
	SkipTLSVerify *bool         `yaml:"skipTLSVerify,omitempty"`
	LookupTTL     time.Duration `yaml:"lookupTTL"` // caches assignable-user searches, 0 disables
}

// Dialog tunes the dialog lifecycle.
type Dialog struct {
	DismissDelay time.Duration `yaml:"dismissDelay"` // success dialogs close after this delay
}

// Enricher lists the message events the plugin renders.
type Enricher struct {
	MessageEvents []string `yaml:"messageEvents"` // empty renders the default state event
}

// SkipInsecure reports whether TLS verification is disabled.
func (h HTTP) SkipInsecure() bool {
	return h.SkipTLSVerify != nil && *h.SkipTLSVerify
}
