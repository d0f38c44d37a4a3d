package shipper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemsKey holds list-shaped responses inside a Result.
const ItemsKey = "items"

// Blank returns a Result with every key set to the empty string. Carriers use
// it as their documented "not found" shape.
func Blank(keys ...string) Result {
	out := make(Result, len(keys))
	for _, k := range keys {
		out[k] = ""
	}
	return out
}

// FromJSON converts a decoded JSON document into a Result. Objects map
// directly, arrays land under ItemsKey, anything else yields an empty Result.
func FromJSON(v any) Result {
	switch t := v.(type) {
	case map[string]any:
		return Result(t)
	case []any:
		return Result{ItemsKey: t}
	default:
		return Result{}
	}
}

// Lookup walks nested maps (and list indices) along path.
func Lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, p := range path {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[p]
			if !ok {
				return nil, false
			}
			cur = next
		case Result:
			next, ok := t[p]
			if !ok {
				return nil, false
			}
			cur = next
		case Payload:
			next, ok := t[p]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup followed by Stringify; absent values yield "".
func LookupString(v any, path ...string) string {
	got, ok := Lookup(v, path...)
	if !ok {
		return ""
	}
	return Stringify(got)
}

// Stringify renders a scalar the way carriers print it. Maps and slices
// yield "" since they are not scalar.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case map[string]any, []any, Payload, Result:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// WithDefaults returns defaults overlaid with payload; payload keys win.
func WithDefaults(defaults, payload Payload) Payload {
	out := defaults.Clone()
	for k, v := range payload {
		out[k] = v
	}
	return out
}
