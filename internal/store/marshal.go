package store

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/ir"
)

// marshalConfig stores settings as canonical JSON so equal settings are
// byte-identical rows.
func marshalConfig(c config.Config) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"limits": map[string]any{
			"max_input_bytes": c.Limits.MaxInputBytes,
			"max_depth":       c.Limits.MaxDepth,
		},
		"charset": c.Charset,
		"workers": c.Workers,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	return string(data), nil
}

func unmarshalConfig(data string) (config.Config, error) {
	var c config.Config
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return config.Config{}, errors.Wrap(err, "unmarshal config")
	}
	return c, nil
}
