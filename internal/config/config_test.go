package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OIDC_ISSUER_URL", "https://sso.example.com/realms/master")
	t.Setenv("OIDC_CLIENT_ID", "realm-console")
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "master", cfg.KeycloakRealm)
	assert.Equal(t, "master", cfg.AccountRealm)
	assert.Equal(t, []string{"realm-admins"}, cfg.AdminGroups)
	assert.Equal(t, 30*time.Minute, cfg.ImportSessionTTL)
	assert.Equal(t, 256, cfg.ImportMaxSessions)
	assert.Equal(t, DefaultSections(), cfg.Sections)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("OIDC_ISSUER_URL", "")
	t.Setenv("OIDC_CLIENT_ID", "")
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "")
	t.Setenv("VAULT_ADDR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC_ISSUER_URL")
	assert.Contains(t, err.Error(), "KEYCLOAK_CLIENT_SECRET")
}

func TestLoad_SecretFromVault(t *testing.T) {
	setRequired(t)
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "")
	t.Setenv("VAULT_ADDR", "https://vault.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KeycloakClientSecret)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("IMPORT_SESSION_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_SESSION_TTL")
}

func TestLoad_ConsoleOverlay(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("EXPORT_DIR", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	overlay := `
publicUrl: https://console.example.com/
accountRealm: customers
exportDir: /var/lib/realm-console/export
exportSections:
  - name: groups
    displayName: groups
    resource: groups
    property: groups
    search: true
    array: true
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://console.example.com/", cfg.PublicURL)
	assert.Equal(t, "https://console.example.com", cfg.CORSOrigin)
	assert.Equal(t, "customers", cfg.AccountRealm)
	assert.Equal(t, "/var/lib/realm-console/export", cfg.ExportDir)
	require.Len(t, cfg.Sections, 1)
	assert.Equal(t, SectionConfig{
		Name: "groups", DisplayName: "groups", Resource: "groups", Property: "groups",
		SearchEnabled: true, Array: true,
	}, cfg.Sections[0])
}

func TestLoad_OverlayRejectsIncompleteSection(t *testing.T) {
	setRequired(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exportSections:\n  - name: broken\n"), 0o600))
	t.Setenv("CONSOLE_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b ,"))
	assert.Empty(t, splitAndTrim(""))
}
