package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds all configuration for the realm-console service.
type Config struct {
	Port                 string   `json:"port"`
	OIDCIssuerURL        string   `json:"oidcIssuerUrl"`
	OIDCClientID         string   `json:"oidcClientId"`
	KeycloakURL          string   `json:"-"`
	KeycloakRealm        string   `json:"keycloakRealm"`
	KeycloakClientID     string   `json:"-"`
	KeycloakClientSecret string   `json:"-"`
	AccountRealm         string   `json:"accountRealm"`
	VaultAddr            string   `json:"-"`
	VaultAuthRole        string   `json:"-"`
	VaultRootCAPath      string   `json:"-"`
	VaultSecretMount     string   `json:"-"`
	VaultSecretPath      string   `json:"-"`
	VaultSecretKey       string   `json:"-"`
	AdminGroups          []string `json:"-"`
	CORSOrigin           string   `json:"-"`
	PublicURL            string   `json:"publicUrl"`
	ResourceURL          string   `json:"resourceUrl"`
	ExportDir            string   `json:"-"`

	ImportSessionTTL  time.Duration `json:"-"`
	ImportMaxSessions int           `json:"-"`
	MaxUploadBytes    int64         `json:"-"`
	RateLimitRPS      float64       `json:"-"`
	RateLimitBurst    int           `json:"-"`

	ConsoleConfigPath string          `json:"-"`
	Sections          []SectionConfig `json:"-"`
}

// SectionConfig describes one exportable/importable realm section.
type SectionConfig struct {
	Name          string `yaml:"name"`
	DisplayName   string `yaml:"displayName"`
	Resource      string `yaml:"resource"`
	Property      string `yaml:"property"`
	SearchEnabled bool   `yaml:"search"`
	Array         bool   `yaml:"array"`
}

// consoleFile is the optional YAML overlay referenced by CONSOLE_CONFIG.
type consoleFile struct {
	ResourceURL    string          `yaml:"resourceUrl"`
	PublicURL      string          `yaml:"publicUrl"`
	AccountRealm   string          `yaml:"accountRealm"`
	ExportDir      string          `yaml:"exportDir"`
	ExportSections []SectionConfig `yaml:"exportSections"`
}

// DefaultSections is the built-in section registry used when the overlay
// does not define one.
func DefaultSections() []SectionConfig {
	return []SectionConfig{
		{Name: "users", DisplayName: "users", Resource: "users", Property: "users", SearchEnabled: true, Array: true},
		{Name: "clients", DisplayName: "clients", Resource: "clients", Property: "clients", SearchEnabled: true, Array: true},
		{Name: "roles", DisplayName: "roles", Resource: "roles", Property: "roles", Array: false},
		{Name: "identity-providers", DisplayName: "identity providers", Resource: "identity-provider/instances", Property: "identityProviders", Array: true},
	}
}

// Load reads configuration from environment variables, applying defaults
// where appropriate, overlays the optional YAML console file and validates
// that all required values are present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envOrDefault("PORT", "8080"),
		OIDCIssuerURL:        os.Getenv("OIDC_ISSUER_URL"),
		OIDCClientID:         os.Getenv("OIDC_CLIENT_ID"),
		KeycloakURL:          envOrDefault("KEYCLOAK_URL", "http://keycloak.keycloak.svc.cluster.local:8080"),
		KeycloakRealm:        envOrDefault("KEYCLOAK_REALM", "master"),
		KeycloakClientID:     envOrDefault("KEYCLOAK_CLIENT_ID", "realm-console"),
		KeycloakClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		AccountRealm:         os.Getenv("ACCOUNT_REALM"),
		VaultAddr:            os.Getenv("VAULT_ADDR"),
		VaultAuthRole:        envOrDefault("VAULT_AUTH_ROLE", "realm-console"),
		VaultRootCAPath:      os.Getenv("VAULT_ROOT_CA_PATH"),
		VaultSecretMount:     envOrDefault("VAULT_SECRET_MOUNT", "kv"),
		VaultSecretPath:      envOrDefault("VAULT_SECRET_PATH", "realm-console/keycloak"),
		VaultSecretKey:       envOrDefault("VAULT_SECRET_KEY", "client_secret"),
		CORSOrigin:           os.Getenv("CORS_ORIGIN"),
		PublicURL:            os.Getenv("PUBLIC_URL"),
		ResourceURL:          envOrDefault("RESOURCE_URL", "/resources"),
		ExportDir:            os.Getenv("EXPORT_DIR"),
		ConsoleConfigPath:    os.Getenv("CONSOLE_CONFIG"),
	}

	cfg.AdminGroups = splitAndTrim(envOrDefault("ADMIN_GROUPS", "realm-admins"))

	var err error
	if cfg.ImportSessionTTL, err = envDuration("IMPORT_SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ImportMaxSessions, err = envInt("IMPORT_MAX_SESSIONS", 256); err != nil {
		return nil, err
	}
	maxUpload, err := envInt("MAX_UPLOAD_BYTES", 16<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.ConsoleConfigPath != "" {
		data, err := os.ReadFile(cfg.ConsoleConfigPath)
		if err != nil {
			return nil, fmt.Errorf("read console config: %w", err)
		}
		if err := cfg.applyOverlay(data); err != nil {
			return nil, err
		}
	}
	if len(cfg.Sections) == 0 {
		cfg.Sections = DefaultSections()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.AccountRealm == "" {
		cfg.AccountRealm = cfg.KeycloakRealm
	}

	// Derive CORS origin from the public URL if not explicitly set.
	if cfg.CORSOrigin == "" && cfg.PublicURL != "" {
		cfg.CORSOrigin = strings.TrimRight(cfg.PublicURL, "/")
	}

	return cfg, nil
}

// applyOverlay merges the YAML console file into cfg. Values already set
// from the environment win over the file.
func (c *Config) applyOverlay(data []byte) error {
	var f consoleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse console config: %w", err)
	}

	if f.ResourceURL != "" && os.Getenv("RESOURCE_URL") == "" {
		c.ResourceURL = f.ResourceURL
	}
	if c.PublicURL == "" {
		c.PublicURL = f.PublicURL
	}
	if c.AccountRealm == "" {
		c.AccountRealm = f.AccountRealm
	}
	if c.ExportDir == "" {
		c.ExportDir = f.ExportDir
	}
	if len(f.ExportSections) > 0 {
		c.Sections = f.ExportSections
	}
	return nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"OIDC_ISSUER_URL": c.OIDCIssuerURL,
		"OIDC_CLIENT_ID":  c.OIDCClientID,
	}
	// The client secret may come from Vault instead.
	if c.VaultAddr == "" {
		required["KEYCLOAK_CLIENT_SECRET"] = c.KeycloakClientSecret
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	seen := make(map[string]struct{}, len(c.Sections))
	for _, s := range c.Sections {
		if s.Name == "" || s.Resource == "" || s.Property == "" {
			return fmt.Errorf("export section %q: name, resource and property are required", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("export section %q defined twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	return nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
