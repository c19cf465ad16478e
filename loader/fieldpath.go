package loader

import "strings"

// fieldValue resolves a dot-separated path (e.g. "metadata.session_id")
// against a decoded JSON record, returning nil when any segment is missing
// or the record isn't a map at that point.
func fieldValue(record RawRecord, path string) any {
	if path == "" {
		return nil
	}
	var cur any = record
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(RawRecord)
		if !ok {
			asMap, ok2 := cur.(map[string]any)
			if !ok2 {
				return nil
			}
			m = asMap
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// fieldString resolves path against record and stringifies the result.
func fieldString(record RawRecord, path string) string {
	v := fieldValue(record, path)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// fieldSlice resolves path against record and returns it as []any, or nil
// if the value isn't a slice.
func fieldSlice(record RawRecord, path string) []any {
	v := fieldValue(record, path)
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

// fieldMap resolves path against record and returns it as a map, or nil if
// the value isn't a map.
func fieldMap(record RawRecord, path string) RawRecord {
	v := fieldValue(record, path)
	m, ok := v.(RawRecord)
	if ok {
		return m
	}
	asMap, ok := v.(map[string]any)
	if ok {
		return asMap
	}
	return nil
}
