package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cases := map[string]struct {
		content string
		wantErr *errors.Error
		check   func(*testing.T, *Config)
	}{
		"missing file": {
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "iavl", c.Backend)
				assert.Equal(t, "info", c.LogLevel)
				assert.False(t, c.Kafka.Enabled())
			},
		},
		"overrides": {
			content: `
backend: pebble
chain_id: my-chain
http_addr: ":9000"
kafka:
  brokers: ["localhost:9092"]
  topic: escrows
`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "pebble", c.Backend)
				assert.Equal(t, "my-chain", c.ChainID)
				assert.Equal(t, ":9000", c.HTTPAddr)
				assert.Equal(t, "tcp://localhost:26658", c.ABCIAddr)
				assert.True(t, c.Kafka.Enabled())
			},
		},
		"unknown backend": {
			content: "backend: bolt\n",
			wantErr: errors.ErrInput,
		},
		"topic without brokers": {
			content: "kafka:\n  topic: escrows\n",
			wantErr: errors.ErrEmpty,
		},
		"not yaml": {
			content: "backend: [",
			wantErr: errors.ErrInput,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			home := t.TempDir()
			if tc.content != "" {
				require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(tc.content), 0644))
			}
			conf, err := loadConfig(home)
			require.True(t, tc.wantErr.Is(err), "got %v", err)
			if tc.check != nil {
				assert.Equal(t, home, conf.Home)
				tc.check(t, conf)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrowd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain_id: from-env-chain\n"), 0644))
	t.Setenv("ESCROWD_CONFIG", path)

	conf, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env-chain", conf.ChainID)
}

func TestConfigSave(t *testing.T) {
	home := t.TempDir()
	conf := defaultConfig(home)
	conf.LogLevel = "debug"
	require.NoError(t, conf.save())

	loaded, err := loadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, &conf, loaded)

	err = conf.save()
	assert.True(t, errors.ErrDuplicate.Is(err), "got %v", err)
}
