package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ParseJSON decodes a JSON object of tool arguments. Numbers are kept as json.Number
// so integer coercion never goes through a lossy float.
func ParseJSON(raw []byte) (Params, error) {
	params := Params{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return params, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidParams, err)
	}
	return params, nil
}

// ParseKeyValues builds params from key=value pairs. Values stay strings.
func ParseKeyValues(pairs []string) (Params, error) {
	params := Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidParams, pair)
		}
		params[key] = value
	}
	return params, nil
}

// Merge returns a copy of p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Require checks that every key is present and, for strings, not blank.
func (p Params) Require(keys ...string) error {
	for _, key := range keys {
		value, ok := p[key]
		if !ok || value == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
		}
	}
	return nil
}

// Decode copies params into the mapstructure-tagged struct out.
func (p Params) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		DecodeHook: coerceHook,
		Result:     out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func coerceHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if data == nil {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int64:
		n, err := CoerceInt(data)
		if err != nil {
			return nil, err
		}
		if to.Kind() == reflect.Int {
			return int(n), nil
		}
		return n, nil
	case reflect.String:
		switch v := data.(type) {
		case json.Number:
			return v.String(), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	}
	return data, nil
}

// CoerceInt converts a string or numeric value to an integer. Fractional numbers and
// non-numeric strings are rejected instead of being truncated.
func CoerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is out of integer range", v)
		}
		return int64(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", v)
		}
		return CoerceInt(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported integer value of type %T", value)
	}
}
