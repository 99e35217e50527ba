package config

import (
	"errors"
	"flag"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Flags{})
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uint(10000), cfg.CacheSize)
	assert.Equal(t, "0.0.0.0:53", cfg.Interface)
	assert.Empty(t, cfg.MetricsAddress)
	assert.Empty(t, cfg.HostsDirs)
	assert.Empty(t, cfg.ZoneFiles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DNS_ENV", "dev")
	t.Setenv("DNS_LOG_LEVEL", "debug")
	t.Setenv("DNS_CACHE_SIZE", "2000")
	t.Setenv("DNS_INTERFACE", "127.0.0.1:5353")

	cfg, err := Load(Flags{})
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint(2000), cfg.CacheSize)
	assert.Equal(t, "127.0.0.1:5353", cfg.Interface)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DNS_CACHE_SIZE", "2000")
	t.Setenv("DNS_INTERFACE", "127.0.0.1:5353")

	cfg, err := Load(Flags{CacheSize: 5000, Interface: "0.0.0.0:9953"})
	require.NoError(t, err)

	assert.Equal(t, uint(5000), cfg.CacheSize)
	assert.Equal(t, "0.0.0.0:9953", cfg.Interface)
}

func TestLoad_FlagsAccumulateSources(t *testing.T) {
	cfg, err := Load(Flags{
		HostsFiles: []string{"/etc/extra-hosts"},
		ZoneDirs:   []string{"/etc/zones.d"},
		ZoneFiles:  []string{"/etc/one.zone", "/etc/two.zone"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/etc/extra-hosts"}, cfg.HostsFiles)
	assert.Equal(t, []string{"/etc/zones.d"}, cfg.ZoneDirs)
	assert.Equal(t, []string{"/etc/one.zone", "/etc/two.zone"}, cfg.ZoneFiles)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("DNS_ENV", "staging")
	_, err := Load(Flags{})
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DNS_LOG_LEVEL", "trace")
	_, err := Load(Flags{})
	assert.Error(t, err)
}

func TestLoad_InvalidInterface(t *testing.T) {
	t.Setenv("DNS_INTERFACE", "not-an-address")
	_, err := Load(Flags{})
	assert.Error(t, err)
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load(Flags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocked error")
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load(Flags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocked error")
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load(Flags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mocked validation error")
}

func TestValidIPPort(t *testing.T) {
	cases := []struct {
		input    string
		expected bool
	}{
		{"1.2.3.4:53", true},
		{"127.0.0.1:5353", true},
		{"::1:53", false},
		{"[::1]:53", true},
		{"192.168.1.1:", false},
		{":53", false},
		{"not_an_ip:53", false},
		{"1.2.3.4:notaport", false},
		{"", false},
		{"1.2.3.4", false},
		{"[::1]", false},
	}

	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("ip_port", validIPPort))

	type S struct {
		Addr string `validate:"ip_port"`
	}

	for _, tc := range cases {
		err := validate.Struct(S{Addr: tc.input})
		if tc.expected {
			assert.NoError(t, err, tc.input)
		} else {
			assert.Error(t, err, tc.input)
		}
	}
}

func TestDefaultLoader_LoadsDefaults(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, defaultLoader(k))

	var cfg AppConfig
	require.NoError(t, k.Unmarshal("", &cfg))

	assert.Equal(t, DEFAULT_APP_CONFIG.Env, cfg.Env)
	assert.Equal(t, DEFAULT_APP_CONFIG.LogLevel, cfg.LogLevel)
	assert.Equal(t, DEFAULT_APP_CONFIG.CacheSize, cfg.CacheSize)
	assert.Equal(t, DEFAULT_APP_CONFIG.Interface, cfg.Interface)
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("homedns", flag.ContinueOnError)
	f, err := ParseFlags(fs, []string{
		"-A", "/etc/hosts.d",
		"-a", "/etc/hosts",
		"-Z", "/etc/zones.d",
		"-z", "/etc/example.com.zone",
		"-z", "/etc/other.zone",
		"--cache-size", "500",
		"--interface", "127.0.0.1:53",
		"--metrics-address", "127.0.0.1:9100",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/etc/hosts.d"}, f.HostsDirs)
	assert.Equal(t, []string{"/etc/hosts"}, f.HostsFiles)
	assert.Equal(t, []string{"/etc/zones.d"}, f.ZoneDirs)
	assert.Equal(t, []string{"/etc/example.com.zone", "/etc/other.zone"}, f.ZoneFiles)
	assert.Equal(t, uint(500), f.CacheSize)
	assert.Equal(t, "127.0.0.1:53", f.Interface)
	assert.Equal(t, "127.0.0.1:9100", f.MetricsAddress)
}

func TestParseFlags_InvalidFlag(t *testing.T) {
	fs := flag.NewFlagSet("homedns", flag.ContinueOnError)
	_, err := ParseFlags(fs, []string{"--nope"})
	assert.Error(t, err)
}
