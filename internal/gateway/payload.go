package gateway

// PayloadGuard bounds the size of any single outbound frame by truncating
// oversized string fields. It never rejects a payload, only shrinks it.
type PayloadGuard struct {
	maxBytes int
}

// NewPayloadGuard returns a guard that truncates strings longer than
// maxBytes. A non-positive limit disables truncation.
func NewPayloadGuard(maxBytes int) *PayloadGuard {
	return &PayloadGuard{maxBytes: maxBytes}
}

// Limit walks the payload depth-first and truncates every string longer than
// the configured byte threshold to exactly that threshold. Maps and slices
// are copied, never mutated in place; non-string, non-container values pass
// through unchanged. Limit is idempotent.
func (g *PayloadGuard) Limit(v interface{}) interface{} {
	if g.maxBytes <= 0 {
		return v
	}
	switch val := v.(type) {
	case string:
		if len(val) > g.maxBytes {
			return val[:g.maxBytes]
		}
		return val
	case []byte:
		if len(val) > g.maxBytes {
			return val[:g.maxBytes]
		}
		return val
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, elem := range val {
			out[k] = g.Limit(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = g.Limit(elem)
		}
		return out
	default:
		return v
	}
}
