package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/containeroo/resolver"
	"gopkg.in/yaml.v3"
)

// Defaults for omitted values.
const (
	defaultTimeout      = 10 * time.Second
	defaultLookupTTL    = 30 * time.Second
	defaultDismissDelay = 3 * time.Second
)

// LoadConfig reads and decodes the YAML config at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ValidateConfig resolves secrets, parses URLs and fills in defaults.
// All problems are reported at once.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if u, err := parseBaseURL(cfg.Integration.URL); err != nil {
		errs = append(errs, fmt.Sprintf("integration.url %s", err))
	} else {
		cfg.Integration.APIURL = u
	}
	if strings.TrimSpace(cfg.Integration.AppID) == "" {
		errs = append(errs, "integration.appId is required")
	}
	if token, err := resolveSecret(cfg.Integration.PodToken); err != nil {
		errs = append(errs, fmt.Sprintf("integration.podToken: %s", err))
	} else {
		cfg.Integration.PodToken = token
	}

	if u, err := parseBaseURL(cfg.Host.URL); err != nil {
		errs = append(errs, fmt.Sprintf("host.url %s", err))
	} else {
		cfg.Host.APIURL = u
	}
	if token, err := resolveSecret(cfg.Host.Token); err != nil {
		errs = append(errs, fmt.Sprintf("host.token: %s", err))
	} else {
		cfg.Host.Token = token
	}

	if cfg.HTTP.Timeout < 0 {
		errs = append(errs, "http.timeout must be >= 0")
	}
	if cfg.HTTP.LookupTTL < 0 {
		errs = append(errs, "http.lookupTTL must be >= 0")
	}
	if cfg.Dialog.DismissDelay < 0 {
		errs = append(errs, "dialog.dismissDelay must be >= 0")
	}
	for i, ev := range cfg.Enricher.MessageEvents {
		if strings.TrimSpace(ev) == "" {
			errs = append(errs, fmt.Sprintf("enricher.messageEvents[%d] must not be empty", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config has errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	setDefaults(cfg)
	return nil
}

// setDefaults fills in zero values.
func setDefaults(cfg *Config) {
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = defaultTimeout
	}
	if cfg.HTTP.LookupTTL == 0 {
		cfg.HTTP.LookupTTL = defaultLookupTTL
	}
	if cfg.HTTP.SkipTLSVerify == nil {
		skip := false
		cfg.HTTP.SkipTLSVerify = &skip
	}
	if cfg.Dialog.DismissDelay == 0 {
		cfg.Dialog.DismissDelay = defaultDismissDelay
	}
}

// parseBaseURL accepts absolute http(s) URLs only.
func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q has no host", raw)
	}
	return u, nil
}

// resolveSecret resolves env:, file: and friends. Empty values are allowed.
func resolveSecret(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	v, err := resolver.ResolveVariable(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}
