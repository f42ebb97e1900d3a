package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialConfig_Password(t *testing.T) {
	cred := CredentialConfig{User: "catalog_dba", Password: SensitiveString("dba-secret")}

	t.Run("Should mask the password when formatted", func(t *testing.T) {
		assert.Equal(t, redacted, cred.Password.String())
		assert.NotContains(t, fmt.Sprintf("%v", cred), "dba-secret")
		assert.NotContains(t, fmt.Sprintf("%+v", PostgresConfig{DBA: cred}), "dba-secret")
	})

	t.Run("Should mask the password in JSON but keep the user", func(t *testing.T) {
		data, err := json.Marshal(cred)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dba-secret")
		assert.Contains(t, string(data), redacted)
		assert.Contains(t, string(data), "catalog_dba")
	})

	t.Run("Should leave an absent password empty", func(t *testing.T) {
		data, err := json.Marshal(CredentialConfig{User: "catalog_app"})
		require.NoError(t, err)
		assert.NotContains(t, string(data), redacted)
		assert.Empty(t, CredentialConfig{}.Password.String())
	})

	t.Run("Should read a password from JSON unmasked", func(t *testing.T) {
		var got CredentialConfig
		require.NoError(t, json.Unmarshal([]byte(`{"User":"catalog_app","Password":"it's secret"}`), &got))
		assert.Equal(t, "it's secret", got.Password.Value())
	})
}

func TestSensitiveString_Loading(t *testing.T) {
	t.Run("Should carry the raw password from the environment through koanf", func(t *testing.T) {
		l := newTestLoader("CATALOG_POSTGRES_DBA_USER=catalog_dba", "CATALOG_POSTGRES_DBA_PASSWORD=it's secret")
		cfg, err := l.Load(t.Context(), baseSource())
		require.NoError(t, err)
		assert.Equal(t, "it's secret", cfg.Postgres.DBA.Password.Value())
		assert.Equal(t, "app-secret", cfg.Postgres.App.Password.Value())
		assert.Equal(t, redacted, cfg.Postgres.DBA.Password.String())
		assert.Equal(t, SourceEnv, l.GetSource("postgres.dba.password"))
	})

	t.Run("Should flag only credential passwords as sensitive paths", func(t *testing.T) {
		assert.True(t, IsSensitiveConfigPath("postgres.app.password"))
		assert.True(t, IsSensitiveConfigPath("postgres.dba.password"))
		assert.False(t, IsSensitiveConfigPath("postgres.app.user"))
		assert.False(t, IsSensitiveConfigPath("postgres.host"))
		assert.False(t, IsSensitiveConfigPath("postgres.app.password.extra"))
	})
}
