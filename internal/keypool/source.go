package keypool

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Source yields candidate API keys in slot order. Sources are tried in
// priority order by Load; a read failure only disables that source.
type Source interface {
	Name() string
	Keys() ([]string, error)
}

// EnvSource reads numbered key slots from environment variables:
// SERPAPI_KEY (slot 1) then SERPAPI_KEY_2 through SERPAPI_KEY_10.
type EnvSource struct{}

// Name implements Source.
func (EnvSource) Name() string { return "env" }

// Keys implements Source. Absent slots are returned as empty strings
// and filtered by the pool, so slot numbering stays stable.
func (EnvSource) Keys() ([]string, error) {
	keys := make([]string, 0, MaxSlots)
	keys = append(keys, os.Getenv("SERPAPI_KEY"))
	for i := 2; i <= MaxSlots; i++ {
		keys = append(keys, os.Getenv(fmt.Sprintf("SERPAPI_KEY_%d", i)))
	}
	return keys, nil
}

// SecretsFileSource reads keys from a mounted secrets file, the shape
// written by the hosted secrets facility:
//
//	serpapi_keys:
//	  - key-one
//	  - key-two
type SecretsFileSource struct {
	Path string
}

// Name implements Source.
func (s SecretsFileSource) Name() string { return "secrets:" + s.Path }

// Keys implements Source.
func (s SecretsFileSource) Keys() ([]string, error) {
	if s.Path == "" {
		return nil, eris.New("keypool: secrets path not configured")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "keypool: read secrets file")
	}

	var doc struct {
		SerpAPIKeys []string `yaml:"serpapi_keys"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "keypool: parse secrets file")
	}

	return doc.SerpAPIKeys, nil
}

// StaticSource returns a fixed key list; used in tests and for keys
// passed directly on the command line.
type StaticSource struct {
	Label string
	Vals  []string
}

// Name implements Source.
func (s StaticSource) Name() string { return s.Label }

// Keys implements Source.
func (s StaticSource) Keys() ([]string, error) { return s.Vals, nil }
