package companion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/weatherface/internal/weather"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("wrong type")
)

// DecodeWeather builds a snapshot from a forecast data item. Both
// temperatures are required strings. The icon code is optional, but when
// present it must be an integer.
func DecodeWeather(data map[string]any) (weather.Snapshot, error) {
	var snap weather.Snapshot

	high, err := stringField(data, KeyHighTemp)
	if err != nil {
		return snap, err
	}
	low, err := stringField(data, KeyLowTemp)
	if err != nil {
		return snap, err
	}
	snap.HighTemp = &high
	snap.LowTemp = &low

	if raw, ok := data[KeyIconID]; ok && raw != nil {
		code, ok := intValue(raw)
		if !ok {
			return weather.Snapshot{}, fmt.Errorf("%s: %w: %T", KeyIconID, ErrWrongType, raw)
		}
		snap.IconCode = &code
	}
	return snap, nil
}

func stringField(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s: %w", key, ErrMissingField)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w: %T", key, ErrWrongType, raw)
	}
	return s, nil
}

// intValue accepts the integer forms produced by the JSON and MessagePack
// decoders. Floats are accepted only when integral.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float32:
		return intValue(float64(n))
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
