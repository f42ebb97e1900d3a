package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConnectionProperties(t *testing.T) {
	d := testDescriptor(t)
	cred, _ := d.Credential(RoleApp)
	base := baseDSN(d, TierTransaction, cred)

	t.Run("Should produce a parsable DSN with the SSL mode and properties", func(t *testing.T) {
		dsn, err := applyConnectionProperties(base, "require", map[string]string{
			"search_path":     "catalog",
			"connect_timeout": "3",
		})
		require.NoError(t, err)
		cfg, err := pgxpool.ParseConfig(dsn)
		require.NoError(t, err)
		assert.Equal(t, "catalog", cfg.ConnConfig.RuntimeParams["search_path"])
		assert.NotNil(t, cfg.ConnConfig.TLSConfig)
		assert.EqualValues(t, 5432, cfg.ConnConfig.Port)
	})

	t.Run("Should quote values with spaces and quotes", func(t *testing.T) {
		dsn, err := applyConnectionProperties(base, "", map[string]string{"options": "-c lock_timeout='5s'"})
		require.NoError(t, err)
		cfg, err := pgxpool.ParseConfig(dsn)
		require.NoError(t, err)
		assert.Equal(t, "-c lock_timeout='5s'", cfg.ConnConfig.RuntimeParams["options"])
	})

	t.Run("Should reject unknown SSL modes", func(t *testing.T) {
		_, err := applyConnectionProperties(base, "sometimes", nil)
		var propErr *InvalidConnectionPropertyError
		require.ErrorAs(t, err, &propErr)
		assert.Equal(t, "sslmode", propErr.Property)
	})

	t.Run("Should reject malformed keys and target overrides", func(t *testing.T) {
		for _, key := range []string{"", "bad key", "a=b", "password", "host"} {
			_, err := applyConnectionProperties(base, "", map[string]string{key: "x"})
			var propErr *InvalidConnectionPropertyError
			require.ErrorAs(t, err, &propErr, key)
			assert.Equal(t, key, propErr.Property)
		}
	})

	t.Run("Should name the property whose value pgx rejects", func(t *testing.T) {
		_, err := applyConnectionProperties(base, "", map[string]string{"connect_timeout": "-1"})
		var propErr *InvalidConnectionPropertyError
		require.ErrorAs(t, err, &propErr)
		assert.Contains(t, err.Error(), "error setting property connect_timeout")
		assert.NotContains(t, err.Error(), "app-secret")
	})

	t.Run("Should keep apostrophe passwords out of property errors", func(t *testing.T) {
		d := testDescriptor(t, func(o *DescriptorOptions) {
			o.App = &Credential{User: "app", Password: "it's secret"}
		})
		cred, _ := d.Credential(RoleApp)
		_, err := applyConnectionProperties(baseDSN(d, TierTransaction, cred), "", map[string]string{"connect_timeout": "abc"})
		var propErr *InvalidConnectionPropertyError
		require.ErrorAs(t, err, &propErr)
		assert.Equal(t, "connect_timeout", propErr.Property)
		assert.NotContains(t, err.Error(), "secret")
	})

	t.Run("Should still apply properties to a DSN with a quoted password", func(t *testing.T) {
		d := testDescriptor(t, func(o *DescriptorOptions) {
			o.App = &Credential{User: "app", Password: "it's secret"}
		})
		cred, _ := d.Credential(RoleApp)
		dsn, err := applyConnectionProperties(baseDSN(d, TierTransaction, cred), "disable", map[string]string{"search_path": "catalog"})
		require.NoError(t, err)
		cfg, err := pgxpool.ParseConfig(dsn)
		require.NoError(t, err)
		assert.Equal(t, "it's secret", cfg.ConnConfig.Password)
		assert.Equal(t, "catalog", cfg.ConnConfig.RuntimeParams["search_path"])
	})
}

func TestPoolConstructionError(t *testing.T) {
	t.Run("Should redact quoted passwords with escaped apostrophes", func(t *testing.T) {
		err := &PoolConstructionError{
			Pool: "postgres-transaction-pool-0",
			Err:  errors.New(`cannot parse "host='db' password='it\'s secret' connect_timeout='abc'": invalid connect_timeout`),
		}
		assert.NotContains(t, err.Error(), "secret")
		assert.Contains(t, err.Error(), "connect_timeout")
	})
}
