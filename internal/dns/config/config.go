package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// ListenAddr is the client-facing UDP address the relay binds to.
	ListenAddr string `koanf:"listen_addr" validate:"required,ip_port"`

	// UpstreamBindAddr is the local address the upstream-facing socket binds to.
	UpstreamBindAddr string `koanf:"upstream_bind_addr" validate:"required,ip_port"`

	// Upstream is the resolver all unanswered queries are forwarded to, in ip:port format.
	Upstream string `koanf:"upstream" validate:"required,ip_port"`

	// HostsPath is the hosts-format file holding local records and blacklist sentinels.
	HostsPath string `koanf:"hosts_path" validate:"required"`

	// BlacklistPath is an optional plain list of names to refuse, one per line.
	BlacklistPath string `koanf:"blacklist_path"`

	// HostsStore selects the backing store for the hosts table.
	HostsStore string `koanf:"hosts_store" validate:"required,oneof=memory bolt"`

	// HostsDBPath is the bbolt database file, used when HostsStore is "bolt".
	HostsDBPath string `koanf:"hosts_db_path" validate:"required_if=HostsStore bolt"`

	// CacheSize bounds the lookup decision cache. Zero disables it.
	CacheSize uint `koanf:"cache_size"`

	// RecordTTL is the TTL, in seconds, stamped on locally answered records.
	RecordTTL uint32 `koanf:"record_ttl" validate:"required,gte=1"`

	// ReapInterval is how often the transaction table collects aged entries.
	ReapInterval time.Duration `koanf:"reap_interval" validate:"required"`

	// ReapMaxAge is how long a forwarded query may wait for its upstream reply.
	ReapMaxAge time.Duration `koanf:"reap_max_age" validate:"required"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings for the relay.
// The addresses and TTL mirror the conventional deployment: a loopback listener on the
// privileged DNS port, an unprivileged upstream-facing socket, and ten-minute records.
var DEFAULT_APP_CONFIG = AppConfig{
	ListenAddr:       "127.0.0.1:53",
	UpstreamBindAddr: "0.0.0.0:10053",
	Upstream:         "10.3.9.45:53",
	HostsPath:        "hosts.txt",
	BlacklistPath:    "",
	HostsStore:       "memory",
	HostsDBPath:      "",
	CacheSize:        1024,
	RecordTTL:        600,
	ReapInterval:     2 * time.Second,
	ReapMaxAge:       5 * time.Second,
	Env:              "prod",
	LogLevel:         "info",
}

// validIPPort validates whether the provided field value is a valid IP address and port combination.
// It expects the value to be in the format "IP:Port". The function returns true if the IP address
// is valid and both the IP and port are non-empty; otherwise, it returns false.
func validIPPort(fl validator.FieldLevel) bool {
	// stringify the field value to get the IP:Port format.
	addr := fl.Field().String()
	// Split the address into IP and port.
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	// Check if the IP address is valid.
	if net.ParseIP(ip) == nil {
		return false
	}
	// Check if the port is a valid number between 1 and 65535.
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader is a function that loads environment variables with the prefix "DNS_".
// It transforms the keys to lowercase and removes the prefix.
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	// Load environment variables with prefix "DNS_".
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)
			return key, value
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf instance
// using the structs provider and the DEFAULT_APP_CONFIG struct. It returns an error
// if loading fails.
var defaultLoader = func(k *koanf.Koanf) error {
	// Load default values using structs provider.
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers a custom validation function "ip_port" with the provided validator.
// It associates the "ip_port" tag with the validIPPort validation logic.
// Returns an error if registration fails.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	// Load environment variables with prefix "DNS_", using koanf/providers/env/v2 and Opt pattern.
	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	// Unmarshal the loaded configuration into AppConfig struct.
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Validate the configuration.
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Register the custom validation function for IP:Port format.
	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
