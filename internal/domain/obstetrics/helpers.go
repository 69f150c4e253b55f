package obstetrics

import "sort"

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// The deref helpers return an untyped nil for unset answers so callers can
// compare FieldState.Value against nil.

func derefInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func derefFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func derefString[T ~string](p *T) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}

func keysOf[K ~string](m map[K]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}
