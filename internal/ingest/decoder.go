package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Decode turns a raw MQTT payload into a DecodeResult.
//
// Algorithm:
//  1. Attempt to parse the payload as a JSON object.
//  2. If it has no message field at all, it's undecodable.
//  3. If it has a nested message.message field, return that field as-is:
//     numeric if it's a JSON number, passthrough otherwise (no string
//     coercion at this level).
//  4. Else attempt to parse the message field as a number; on failure,
//     return its raw value as passthrough, whatever shape it is (string,
//     object, array, bool).
//  5. If the payload isn't a JSON object at all, parse the raw string as a
//     number.
//
// NaN and ±Inf never count as a number, whatever field they came from.
func Decode(payload []byte) DecodeResult {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err == nil {
		return decodeObject(obj)
	}
	return decodeString(string(payload))
}

func decodeObject(obj map[string]any) DecodeResult {
	message, ok := obj["message"]
	if !ok {
		return DecodeResult{Kind: KindUndecodable}
	}
	if nested, ok := message.(map[string]any); ok {
		if inner, ok := nested["message"]; ok {
			return valueAsIs(inner)
		}
	}
	return valueCoerced(message)
}

// valueAsIs classifies v without attempting string-to-number coercion:
// only a JSON number counts, everything else passes through unchanged.
func valueAsIs(v any) DecodeResult {
	if f, ok := asFiniteFloat(v); ok {
		return DecodeResult{Kind: KindNumber, Value: f}
	}
	return DecodeResult{Kind: KindPassthrough, Raw: v}
}

// valueCoerced classifies v, additionally trying to parse strings as
// numbers before giving up and passing the raw value through.
func valueCoerced(v any) DecodeResult {
	if f, ok := asFiniteFloat(v); ok {
		return DecodeResult{Kind: KindNumber, Value: f}
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return DecodeResult{Kind: KindNumber, Value: f}
		}
	}
	return DecodeResult{Kind: KindPassthrough, Raw: v}
}

func decodeString(s string) DecodeResult {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return DecodeResult{Kind: KindUndecodable}
	}
	return DecodeResult{Kind: KindNumber, Value: f}
}

func asFiniteFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
