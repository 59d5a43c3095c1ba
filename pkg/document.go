package pkg

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/goccy/go-yaml"
	"golang.org/x/exp/maps"

	"github.com/dzjyyds666/aqtoml/encode/toml"
)

var ErrNotMapping = errors.New("document root is not a mapping")

// LoadDocument 解析 YAML 或 JSON 文本，保持键的原始顺序
func LoadDocument(data []byte) (*toml.Table, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if raw == nil {
		return toml.NewTable(), nil
	}
	root, ok := toDocument(raw).(*toml.Table)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}
	return root, nil
}

// toDocument rewrites decoded YAML into values the encoder knows:
// ordered maps become Tables and unsigned integers become int64.
func toDocument(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		t := toml.NewTable()
		for _, item := range x {
			t.Set(fmt.Sprint(item.Key), toDocument(item.Value))
		}
		return t
	case map[string]any:
		t := toml.NewTable()
		keys := maps.Keys(x)
		slices.Sort(keys)
		for _, k := range keys {
			t.Set(k, toDocument(x[k]))
		}
		return t
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = toDocument(x[i])
		}
		return out
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	case int:
		return int64(x)
	}
	return v
}
