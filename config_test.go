package rdap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://data.iana.org/rdap/dns.json", cfg.BootstrapURLs.DNS)
	assert.Equal(t, "https://data.iana.org/rdap/ipv4.json", cfg.BootstrapURLs.IPv4)
	assert.Equal(t, "https://data.iana.org/rdap/ipv6.json", cfg.BootstrapURLs.IPv6)
	assert.Equal(t, "https://data.iana.org/rdap/asn.json", cfg.BootstrapURLs.ASN)
	assert.Equal(t, "https://data.iana.org/rdap/object-tags.json", cfg.BootstrapURLs.ObjectTags)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.TLDOverrides)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestMergeConfig_ScalarsReplaceMapsMergeKeyWise(t *testing.T) {
	dst := DefaultConfig()
	dst.TLDOverrides["com"] = "https://rdap.example/com"

	src := Config{CacheDir: "/tmp/custom", Timeout: 5 * time.Second}
	src.BootstrapURLs.DNS = "https://bootstrap.example/dns.json"
	src.TLDOverrides = map[string]string{"net": "https://rdap.example/net"}

	mergeConfig(&dst, src)

	assert.Equal(t, "/tmp/custom", dst.CacheDir)
	assert.Equal(t, 5*time.Second, dst.Timeout)
	assert.Equal(t, "https://bootstrap.example/dns.json", dst.BootstrapURLs.DNS)
	// Untouched scalar survives the merge.
	assert.Equal(t, "https://data.iana.org/rdap/ipv4.json", dst.BootstrapURLs.IPv4)
	// Maps merge key-wise: both the pre-existing and the new key survive.
	assert.Equal(t, "https://rdap.example/com", dst.TLDOverrides["com"])
	assert.Equal(t, "https://rdap.example/net", dst.TLDOverrides["net"])
}

func TestMergeConfig_ZeroValuesDoNotOverwrite(t *testing.T) {
	dst := DefaultConfig()
	before := dst.BootstrapURLs.DNS

	mergeConfig(&dst, Config{})

	assert.Equal(t, before, dst.BootstrapURLs.DNS)
	assert.Equal(t, 30*time.Second, dst.Timeout)
}

func TestMergeConfigFile_MissingFileIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	err := mergeConfigFile(&cfg, filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.NoError(t, err)
}

func TestMergeConfigFile_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "layer.json")
	jsonBody, err := json.Marshal(map[string]any{
		"cacheDir": "/var/cache/rdap-json",
		"timeout":  2000000000, // 2s, encoded as a plain int per time.Duration's JSON form
	})
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(jsonPath, jsonBody, 0o644))

	yamlPath := filepath.Join(dir, "layer.yaml")
	yamlBody := []byte("cacheDir: /var/cache/rdap-yaml\ntldOverrides:\n  test: https://rdap.example/test\n")
	assert.NoError(t, os.WriteFile(yamlPath, yamlBody, 0o644))

	cfg := DefaultConfig()
	assert.NoError(t, mergeConfigFile(&cfg, jsonPath))
	assert.Equal(t, "/var/cache/rdap-json", cfg.CacheDir)
	assert.Equal(t, 2*time.Second, cfg.Timeout)

	assert.NoError(t, mergeConfigFile(&cfg, yamlPath))
	assert.Equal(t, "/var/cache/rdap-yaml", cfg.CacheDir)
	assert.Equal(t, "https://rdap.example/test", cfg.TLDOverrides["test"])
}

func TestMergeConfigFile_MalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layer.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	cfg := DefaultConfig()
	assert.Error(t, mergeConfigFile(&cfg, path))
}

func TestLoadConfig_HomeAndLocalLayers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "rdap")
	assert.NoError(t, os.MkdirAll(configDir, 0o755))

	homeLayer := []byte(`{"cacheDir": "/var/cache/rdap-home"}`)
	assert.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), homeLayer, 0o644))

	localLayer := []byte(`{"timeout": 9000000000}`)
	assert.NoError(t, os.WriteFile(filepath.Join(configDir, "config.local.json"), localLayer, 0o644))

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "/var/cache/rdap-home", cfg.CacheDir)
	assert.Equal(t, 9*time.Second, cfg.Timeout)
}

func TestApplyConfig_OptionsConfigureClientFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TLDOverrides["xn--p1ai"] = "https://rdap.example/ru"

	opts := ApplyConfig(cfg)
	c := New(opts...)

	assert.Equal(t, cfg.CacheDir, c.cacheDir)
	assert.Equal(t, cfg.Timeout, c.baseTimeout)
	assert.Equal(t, cfg.BootstrapURLs.DNS, c.dnsRegistry.url)
	assert.Equal(t, cfg.BootstrapURLs.IPv4, c.ipv4Registry.url)
	assert.Equal(t, "https://rdap.example/ru", c.tldOverrides["xn--p1ai"])
}
