package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds the resolver's runtime configuration (spec §6 "CLI
// surface" plus ambient env-var defaults).
type AppConfig struct {
	// HostsDirs are directories whose files each load as a hosts file (-A).
	HostsDirs []string `koanf:"hosts_dirs"`

	// HostsFiles are individual hosts files to load (-a).
	HostsFiles []string `koanf:"hosts_files"`

	// ZoneDirs are directories whose files each load as a zone file (-Z).
	ZoneDirs []string `koanf:"zone_dirs"`

	// ZoneFiles are individual zone files to load (-z).
	ZoneFiles []string `koanf:"zone_files"`

	// CacheSize is the maximum number of entries the response cache holds.
	CacheSize uint `koanf:"cache_size" validate:"required,gte=1"`

	// Interface is the bind address for the UDP and TCP DNS listeners.
	Interface string `koanf:"interface" validate:"required,ip_port"`

	// MetricsAddress is the HTTP address metrics would be served on; the
	// exporter itself is out of scope, this value is logged and unused.
	MetricsAddress string `koanf:"metrics_address"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG defines the default configuration applied before
// environment variables and CLI flags override it.
var DEFAULT_APP_CONFIG = AppConfig{
	CacheSize:      10000,
	Interface:      "0.0.0.0:53",
	MetricsAddress: "",
	Env:            "prod",
	LogLevel:       "info",
}

// validIPPort validates whether the provided field value is a valid IP
// address and port combination in "IP:Port" form.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads environment variables prefixed "DNS_" into the koanf
// instance, lower-casing keys and splitting space/comma-separated values
// into slices (used by *_DIRS/*_FILES list-valued keys).
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into the koanf instance.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "ip_port" validation tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Flags holds the parsed CLI flag values (spec §6 "CLI surface"), applied
// over the environment/default layer as the highest-priority override.
type Flags struct {
	HostsDirs      []string
	HostsFiles     []string
	ZoneDirs       []string
	ZoneFiles      []string
	CacheSize      uint
	Interface      string
	MetricsAddress string
}

// repeatableFlag collects every occurrence of a flag that may be passed
// more than once on the command line (e.g. multiple -z files).
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// ParseFlags parses args against the CLI surface of spec §6. args excludes
// the program name (pass os.Args[1:]).
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	var hostsDirs, hostsFiles, zoneDirs, zoneFiles repeatableFlag

	fs.Var(&hostsDirs, "A", "load every file in directory as a hosts file")
	fs.Var(&hostsFiles, "a", "load a single hosts file")
	fs.Var(&zoneDirs, "Z", "load every file in directory as a zone file")
	fs.Var(&zoneFiles, "z", "load a single zone file")
	cacheSize := fs.Uint("cache-size", 0, "maximum cache entry count (0 = use configured default)")
	iface := fs.String("interface", "", "bind address for DNS listeners")
	metricsAddr := fs.String("metrics-address", "", "HTTP address for metrics (external)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	f.HostsDirs = hostsDirs
	f.HostsFiles = hostsFiles
	f.ZoneDirs = zoneDirs
	f.ZoneFiles = zoneFiles
	f.CacheSize = *cacheSize
	f.Interface = *iface
	f.MetricsAddress = *metricsAddr
	return f, nil
}

// Load parses environment variables and defaults into an AppConfig, then
// applies flags on top as the highest-priority override, and validates the
// result.
func Load(flags Flags) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	applyFlags(&cfg, flags)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// applyFlags overlays any flags the user actually set onto cfg, leaving
// env/default values in place for everything else.
func applyFlags(cfg *AppConfig, flags Flags) {
	cfg.HostsDirs = append(cfg.HostsDirs, flags.HostsDirs...)
	cfg.HostsFiles = append(cfg.HostsFiles, flags.HostsFiles...)
	cfg.ZoneDirs = append(cfg.ZoneDirs, flags.ZoneDirs...)
	cfg.ZoneFiles = append(cfg.ZoneFiles, flags.ZoneFiles...)

	if flags.CacheSize > 0 {
		cfg.CacheSize = flags.CacheSize
	}
	if flags.Interface != "" {
		cfg.Interface = flags.Interface
	}
	if flags.MetricsAddress != "" {
		cfg.MetricsAddress = flags.MetricsAddress
	}
}
