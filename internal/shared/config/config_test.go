package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5433
  user: app
  password: secret
  database: quickserve
rabbitmq:
  user: guest
  password: guest
restaurant:
  tables: 10
  tax_rate: 0.095
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Restaurant.Tables)
	assert.Equal(t, 0.095, cfg.Restaurant.TaxRate)

	// defaults fill the gaps
	assert.Equal(t, "localhost", cfg.RabbitMQ.Host)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, 2, cfg.Restaurant.Lanes)
	assert.Equal(t, 2000, cfg.Restaurant.NotifyTimeoutMS)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  user: app
  password: secret
  database: quickserve
  hostname: oops
rabbitmq:
  user: guest
  password: guest
`)

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	testCases := map[string]string{
		"missing db credentials": `
rabbitmq:
  user: guest
  password: guest
`,
		"tax rate out of range": `
database:
  user: app
  password: secret
  database: quickserve
rabbitmq:
  user: guest
  password: guest
restaurant:
  tax_rate: 1.5
`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
