package rdap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the external-collaborator value described in §4.6: the core
// only depends on this shape, never on how it was assembled. Options built
// from a Config (ApplyConfig) configure a Client identically to hand-built
// functional options.
type Config struct {
	BootstrapURLs struct {
		DNS        string `json:"dns,omitempty" yaml:"dns,omitempty"`
		IPv4       string `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
		IPv6       string `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
		ASN        string `json:"asn,omitempty" yaml:"asn,omitempty"`
		ObjectTags string `json:"objectTags,omitempty" yaml:"objectTags,omitempty"`
	} `json:"bootstrapUrls" yaml:"bootstrapUrls"`

	TLDOverrides map[string]string `json:"tldOverrides,omitempty" yaml:"tldOverrides,omitempty"`

	// TLDListURL is the source for the classifier's rule-4 IANA TLD list
	// (§6 "tlds.txt is a newline-delimited IANA TLD list"), lazily fetched
	// and cached under CacheDir/tlds.txt.
	TLDListURL string `json:"tldListUrl,omitempty" yaml:"tldListUrl,omitempty"`

	CacheDir string        `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig returns the built-in baseline every layer overrides on top
// of: IANA's four RFC 7484 registries, the platform cache directory, and a
// 30s timeout matching New's default.
func DefaultConfig() Config {
	var cfg Config
	cfg.BootstrapURLs.DNS = "https://data.iana.org/rdap/dns.json"
	cfg.BootstrapURLs.IPv4 = "https://data.iana.org/rdap/ipv4.json"
	cfg.BootstrapURLs.IPv6 = "https://data.iana.org/rdap/ipv6.json"
	cfg.BootstrapURLs.ASN = "https://data.iana.org/rdap/asn.json"
	cfg.BootstrapURLs.ObjectTags = "https://data.iana.org/rdap/object-tags.json"
	cfg.TLDListURL = defaultTLDListURL
	cfg.TLDOverrides = make(map[string]string)
	cfg.CacheDir = defaultCacheDir()
	cfg.Timeout = 30 * time.Second
	return cfg
}

// LoadConfig builds a Config by layering, in order: built-in defaults,
// /etc/rdap/config.json, ~/.config/rdap/config.json, then a
// config.local.json or config.local.yaml sitting beside whichever of the
// previous two files was found last (§4.6). Each layer that parses
// successfully merges its maps key-wise into the accumulator and replaces
// scalars outright; a missing file is not an error, a malformed one is.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	layers := []string{filepath.Join("/etc", "rdap", "config.json")}
	if home, err := os.UserHomeDir(); err == nil {
		layers = append(layers, filepath.Join(home, ".config", "rdap", "config.json"))
	}

	var lastDir string
	for _, p := range layers {
		if err := mergeConfigFile(&cfg, p); err != nil {
			return cfg, err
		}
		if _, err := os.Stat(p); err == nil {
			lastDir = filepath.Dir(p)
		}
	}

	if lastDir != "" {
		if err := mergeConfigFile(&cfg, filepath.Join(lastDir, "config.local.json")); err != nil {
			return cfg, err
		}
		if err := mergeConfigFile(&cfg, filepath.Join(lastDir, "config.local.yaml")); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// mergeConfigFile reads path (by extension, JSON or YAML) and merges it
// onto cfg in place. A nonexistent file is silently skipped.
func mergeConfigFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var layer Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &layer); err != nil {
			return err
		}
	default:
		if err := json.Unmarshal(b, &layer); err != nil {
			return err
		}
	}
	mergeConfig(cfg, layer)
	return nil
}

// mergeConfig folds src onto dst: nonzero scalars replace, maps merge
// key-wise (§4.6 "Maps are merged key-wise; scalars are replaced").
func mergeConfig(dst *Config, src Config) {
	if src.BootstrapURLs.DNS != "" {
		dst.BootstrapURLs.DNS = src.BootstrapURLs.DNS
	}
	if src.BootstrapURLs.IPv4 != "" {
		dst.BootstrapURLs.IPv4 = src.BootstrapURLs.IPv4
	}
	if src.BootstrapURLs.IPv6 != "" {
		dst.BootstrapURLs.IPv6 = src.BootstrapURLs.IPv6
	}
	if src.BootstrapURLs.ASN != "" {
		dst.BootstrapURLs.ASN = src.BootstrapURLs.ASN
	}
	if src.BootstrapURLs.ObjectTags != "" {
		dst.BootstrapURLs.ObjectTags = src.BootstrapURLs.ObjectTags
	}
	if src.TLDListURL != "" {
		dst.TLDListURL = src.TLDListURL
	}
	if src.CacheDir != "" {
		dst.CacheDir = src.CacheDir
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if len(src.TLDOverrides) > 0 {
		if dst.TLDOverrides == nil {
			dst.TLDOverrides = make(map[string]string)
		}
		for k, v := range src.TLDOverrides {
			dst.TLDOverrides[k] = v
		}
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "rdap")
	}
	return filepath.Join(os.TempDir(), "rdap")
}

// ApplyConfig translates a loaded Config into the equivalent Options, so
// New(ApplyConfig(cfg)...) configures a Client identically to one built by
// hand. The core never imports Config's loader; it only consumes this
// shape (§4.6 "The core does not depend on where Config comes from").
func ApplyConfig(cfg Config) []Option {
	opts := []Option{
		WithCacheDir(cfg.CacheDir),
		WithTimeout(cfg.Timeout),
	}
	if cfg.BootstrapURLs.DNS != "" {
		opts = append(opts, WithBootstrapURL(cfg.BootstrapURLs.DNS))
	}
	if cfg.BootstrapURLs.IPv4 != "" {
		opts = append(opts, WithIPv4BootstrapURL(cfg.BootstrapURLs.IPv4))
	}
	if cfg.BootstrapURLs.IPv6 != "" {
		opts = append(opts, WithIPv6BootstrapURL(cfg.BootstrapURLs.IPv6))
	}
	if cfg.BootstrapURLs.ASN != "" {
		opts = append(opts, WithASNBootstrapURL(cfg.BootstrapURLs.ASN))
	}
	if cfg.BootstrapURLs.ObjectTags != "" {
		opts = append(opts, WithObjectTagsBootstrapURL(cfg.BootstrapURLs.ObjectTags))
	}
	if cfg.TLDListURL != "" {
		opts = append(opts, WithTLDListURL(cfg.TLDListURL))
	}
	if len(cfg.TLDOverrides) > 0 {
		opts = append(opts, WithTLDOverrides(cfg.TLDOverrides))
	}
	return opts
}
