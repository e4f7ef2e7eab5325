package keypool

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSource_NumberedSlots(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "slot-one")
	t.Setenv("SERPAPI_KEY_2", "slot-two")
	t.Setenv("SERPAPI_KEY_5", "slot-five")

	keys, err := EnvSource{}.Keys()
	require.NoError(t, err)
	require.Len(t, keys, MaxSlots)
	assert.Equal(t, "slot-one", keys[0])
	assert.Equal(t, "slot-two", keys[1])
	assert.Equal(t, "", keys[2])
	assert.Equal(t, "slot-five", keys[4])
}

func TestEnvSource_ThroughLoad(t *testing.T) {
	t.Setenv("SERPAPI_KEY", Placeholder)
	t.Setenv("SERPAPI_KEY_2", "usable")
	for i := 3; i <= MaxSlots; i++ {
		t.Setenv(envSlotName(i), "")
	}

	p := Load(EnvSource{})
	require.Equal(t, 1, p.Size())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "usable", key)
}

func envSlotName(i int) string {
	if i == 1 {
		return "SERPAPI_KEY"
	}
	return fmt.Sprintf("SERPAPI_KEY_%d", i)
}

func TestSecretsFileSource_ReadsKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serpapi_keys:\n  - aaa\n  - bbb\n"), 0o600))

	keys, err := SecretsFileSource{Path: path}.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb"}, keys)
}

func TestSecretsFileSource_MissingFile(t *testing.T) {
	_, err := SecretsFileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}.Keys()
	require.Error(t, err)
}

func TestSecretsFileSource_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serpapi_keys: {not: [valid"), 0o600))

	_, err := SecretsFileSource{Path: path}.Keys()
	require.Error(t, err)
}

func TestSecretsFileSource_FallsThroughToEnv(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "env-key")

	p := Load(
		SecretsFileSource{Path: filepath.Join(t.TempDir(), "absent.yaml")},
		EnvSource{},
	)

	require.GreaterOrEqual(t, p.Size(), 1)
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "env-key", key)
}
