package flexsearch

import (
	"strconv"
	"strings"
)

// Tree-path grammar for field paths (§4.I), grounded on
// original_source/.../document/tree.rs, generalized from its ':'-joined
// Rust prototype to the '.'-joined ASCII grammar:
//
//	path       := segment ( '.' segment )*
//	segment    := name ( '[' indexspec ']' )?
//	indexspec  := nonneg                  # positive index
//	            | '-' pos                 # n-th-from-end (1-based)
//	            | nonneg '-' nonneg       # inclusive range

// PathSegmentKind discriminates how a PathSegment selects into a record.
type PathSegmentKind int

const (
	// SegmentField selects a named field of a map.
	SegmentField PathSegmentKind = iota
	// SegmentIndex selects a 0-based index of an array.
	SegmentIndex
	// SegmentNegativeIndex selects the n-th element from the end (1-based).
	SegmentNegativeIndex
	// SegmentRange selects an inclusive index range; retained syntactically
	// but never resolved to a scalar string value.
	SegmentRange
)

// PathSegment is one '.'-delimited step of a parsed path.
type PathSegment struct {
	Kind  PathSegmentKind
	Name  string
	Index int
	End   int
}

// ParsePath parses a field path per the tree-path grammar. Empty
// intermediate segments (consecutive dots, or a leading/trailing dot)
// yield a PathSegment with an empty Name, matching "empty intermediate
// segments yield the empty string".
func ParsePath(path string) []PathSegment {
	parts := strings.Split(path, ".")
	segments := make([]PathSegment, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, parseSegment(part))
	}
	return segments
}

func parseSegment(part string) PathSegment {
	start := strings.LastIndexByte(part, '[')
	if start < 0 || !strings.HasSuffix(part, "]") {
		return PathSegment{Kind: SegmentField, Name: part}
	}
	name := part[:start]
	spec := part[start+1 : len(part)-1]

	if strings.HasPrefix(spec, "-") {
		n, err := strconv.Atoi(spec[1:])
		if err != nil {
			return PathSegment{Kind: SegmentField, Name: part}
		}
		return PathSegment{Kind: SegmentNegativeIndex, Name: name, Index: n}
	}

	if dash := strings.IndexByte(spec, '-'); dash > 0 {
		lo, errLo := strconv.Atoi(spec[:dash])
		hi, errHi := strconv.Atoi(spec[dash+1:])
		if errLo == nil && errHi == nil {
			return PathSegment{Kind: SegmentRange, Name: name, Index: lo, End: hi}
		}
		return PathSegment{Kind: SegmentField, Name: part}
	}

	n, err := strconv.Atoi(spec)
	if err != nil {
		return PathSegment{Kind: SegmentField, Name: part}
	}
	return PathSegment{Kind: SegmentIndex, Name: name, Index: n}
}

// resolveStep descends one segment into a nested map[string]any / []any
// record, returning the sub-value and whether it was found.
func resolveStep(current any, seg PathSegment) (any, bool) {
	switch seg.Kind {
	case SegmentField:
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		v, exists := m[seg.Name]
		return v, exists

	case SegmentIndex, SegmentNegativeIndex:
		base := current
		if seg.Name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			v, exists := m[seg.Name]
			if !exists {
				return nil, false
			}
			base = v
		}
		arr, ok := base.([]any)
		if !ok {
			return nil, false
		}
		idx := seg.Index
		if seg.Kind == SegmentNegativeIndex {
			idx = len(arr) - seg.Index
			if idx < 0 {
				idx = 0
			}
		}
		if idx < 0 || idx >= len(arr) {
			return nil, false
		}
		return arr[idx], true

	case SegmentRange:
		// Retained syntactically; never resolves to a scalar value.
		return nil, false
	}
	return nil, false
}

// ExtractPathValue walks record along path and renders the terminal value
// as a string, matching the original's Value-to-string coercion: strings
// pass through, numbers/bools stringify, null becomes "", and any other
// shape is rejected (absent).
func ExtractPathValue(record map[string]any, path []PathSegment) (string, bool) {
	var current any = record
	for _, seg := range path {
		v, ok := resolveStep(current, seg)
		if !ok {
			return "", false
		}
		current = v
	}
	return stringifyLeaf(current)
}

func stringifyLeaf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// PathExists reports whether path resolves to a present value in record,
// without requiring it to stringify (a SegmentRange terminal exists).
func PathExists(record map[string]any, path []PathSegment) bool {
	var current any = record
	for i, seg := range path {
		if seg.Kind == SegmentRange && i == len(path)-1 {
			m, ok := current.(map[string]any)
			if !ok {
				return false
			}
			_, exists := m[seg.Name]
			return exists
		}
		v, ok := resolveStep(current, seg)
		if !ok {
			return false
		}
		current = v
	}
	return true
}
