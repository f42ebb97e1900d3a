package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	data       map[string]any
	sourceType SourceType
	loadErr    error
}

func (m *mockSource) Load() (map[string]any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *mockSource) Type() SourceType { return m.sourceType }

func (m *mockSource) Close() error { return nil }

func baseSource() *mockSource {
	return &mockSource{
		sourceType: SourceYAML,
		data: map[string]any{
			"postgres": map[string]any{
				"host":     "pgbouncer.internal",
				"database": "catalog",
				"app": map[string]any{
					"user":     "catalog_app",
					"password": "app-secret",
				},
			},
		},
	}
}

func newTestLoader(environ ...string) *loader {
	l := NewService().(*loader)
	l.environ = func() []string { return environ }
	return l
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should keep tier defaults when sources omit them", func(t *testing.T) {
		// Arrange
		l := newTestLoader()

		// Act
		cfg, err := l.Load(t.Context(), baseSource())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "pgbouncer.internal", cfg.Postgres.Host)
		assert.Equal(t, 15432, cfg.Postgres.Admin.Port)
		assert.Equal(t, 6432, cfg.Postgres.Session.Port)
		assert.Equal(t, 2, cfg.Postgres.Session.PoolSize)
		assert.Equal(t, 5432, cfg.Postgres.Transaction.Port)
		assert.Equal(t, 50, cfg.Postgres.Transaction.PoolSize)
		assert.Equal(t, 5*time.Second, cfg.Postgres.AcquireTimeout)
		assert.Equal(t, "app-secret", cfg.Postgres.App.Password.Value())
		assert.False(t, cfg.Postgres.DBA.Present())
	})

	t.Run("Should let later sources override earlier ones", func(t *testing.T) {
		// Arrange
		l := newTestLoader()
		cli := &mockSource{
			sourceType: SourceCLI,
			data: map[string]any{
				"postgres": map[string]any{"transaction": map[string]any{"pool_size": 10}},
			},
		}

		// Act
		cfg, err := l.Load(t.Context(), baseSource(), cli)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Postgres.Transaction.PoolSize)
		assert.Equal(t, 5432, cfg.Postgres.Transaction.Port)
		assert.Equal(t, SourceCLI, l.GetSource("postgres.transaction.pool_size"))
		assert.Equal(t, SourceYAML, l.GetSource("postgres.host"))
		assert.Equal(t, SourceDefault, l.GetSource("postgres.session.port"))
	})

	t.Run("Should apply mapped environment variables last", func(t *testing.T) {
		// Arrange
		l := newTestLoader(
			"CATALOG_POSTGRES_HOST=env-host",
			"CATALOG_POSTGRES_DBA_USER=dba",
			"CATALOG_POSTGRES_DBA_PASSWORD=dba-secret",
			"CATALOG_POSTGRES_SESSION_PORT=7432",
			"CATALOG_POSTGRES_STATEMENT_TIMEOUT=2s",
			"CATALOG_UNRELATED=ignored",
		)

		// Act
		cfg, err := l.Load(t.Context(), baseSource())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "env-host", cfg.Postgres.Host)
		assert.Equal(t, "dba", cfg.Postgres.DBA.User)
		assert.Equal(t, "dba-secret", cfg.Postgres.DBA.Password.Value())
		assert.Equal(t, 7432, cfg.Postgres.Session.Port)
		assert.Equal(t, 2*time.Second, cfg.Postgres.StatementTimeout)
		assert.Equal(t, SourceEnv, l.GetSource("postgres.host"))
	})

	t.Run("Should let CLI flags win over the environment", func(t *testing.T) {
		l := newTestLoader("CATALOG_POSTGRES_HOST=env-host")
		flags := NewCLIProvider(map[string]any{"postgres.host": "flag-host"})

		cfg, err := l.Load(t.Context(), flags, baseSource())

		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Postgres.Host)
		assert.Equal(t, SourceCLI, l.GetSource("postgres.host"))
	})

	t.Run("Should reject configuration without host", func(t *testing.T) {
		l := newTestLoader()
		_, err := l.Load(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Host")
	})

	t.Run("Should reject configuration without any credential", func(t *testing.T) {
		l := newTestLoader()
		src := baseSource()
		delete(src.data["postgres"].(map[string]any), "app")
		_, err := l.Load(t.Context(), src)
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("Should reject unknown ssl mode", func(t *testing.T) {
		l := newTestLoader("CATALOG_POSTGRES_SSL_MODE=sometimes")
		_, err := l.Load(t.Context(), baseSource())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SSLMode")
	})

	t.Run("Should surface source load failures", func(t *testing.T) {
		l := newTestLoader()
		_, err := l.Load(t.Context(), &mockSource{sourceType: SourceYAML, loadErr: errors.New("boom")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestYAMLProvider(t *testing.T) {
	t.Run("Should load properties and ignore nil values", func(t *testing.T) {
		// Arrange
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		content := `
postgres:
  host: db
  database: catalog
  ssl_mode: require
  dba:
    user: admin
    password: pw
  properties:
    application_name: catalog-api
  session:
    pool_size:
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// Act
		cfg, err := newTestLoader().Load(t.Context(), NewYAMLProvider(path))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "require", cfg.Postgres.SSLMode)
		assert.Equal(t, map[string]string{"application_name": "catalog-api"}, cfg.Postgres.Properties)
		assert.Equal(t, 2, cfg.Postgres.Session.PoolSize)
	})

	t.Run("Should treat a missing file as empty", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml")).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestCLIProvider(t *testing.T) {
	t.Run("Should nest dotted paths", func(t *testing.T) {
		data, err := NewCLIProvider(map[string]any{"postgres.host": "h", "log.level": "debug"}).Load()
		require.NoError(t, err)
		assert.Equal(t, "h", data["postgres"].(map[string]any)["host"])
		assert.Equal(t, "debug", data["log"].(map[string]any)["level"])
	})

}

func TestEnvMappings(t *testing.T) {
	t.Run("Should prefix nested credential and tier variables", func(t *testing.T) {
		m := GenerateEnvToConfigMap()
		assert.Equal(t, "postgres.app.user", m["CATALOG_POSTGRES_APP_USER"])
		assert.Equal(t, "postgres.dba.password", m["CATALOG_POSTGRES_DBA_PASSWORD"])
		assert.Equal(t, "postgres.transaction.pool_size", m["CATALOG_POSTGRES_TRANSACTION_POOL_SIZE"])
		assert.Equal(t, "log.level", m["CATALOG_LOG_LEVEL"])
	})

	t.Run("Should flag password paths as sensitive", func(t *testing.T) {
		assert.True(t, IsSensitiveConfigPath("postgres.app.password"))
		assert.False(t, IsSensitiveConfigPath("postgres.app.user"))
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should fail when a scalar blocks a nested path", func(t *testing.T) {
		m := map[string]any{"postgres": "x"}
		err := setNested(m, "postgres.host", "h")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration conflict")
	})
}
