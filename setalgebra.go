package flexsearch

import "github.com/RoaringBitmap/roaring"

// Set algebra over sequences of "intermediate result" arrays, per spec.md
// §4.G, grounded on original_source/.../intersect/core.rs and
// .../resolver/{and,or,not,xor,combine}.rs.

// Intersect retains a DocId iff it appears in every input, preserving the
// first input's first-occurrence order. Intersect of 0 inputs is empty; of
// 1 input is the input unchanged.
func Intersect(inputs ...[]DocId) []DocId {
	if len(inputs) == 0 {
		return nil
	}
	if len(inputs) == 1 {
		return append([]DocId(nil), inputs[0]...)
	}
	sets := make([]map[DocId]struct{}, len(inputs)-1)
	for i := 1; i < len(inputs); i++ {
		sets[i-1] = toSet(inputs[i])
	}
	seen := make(map[DocId]struct{}, len(inputs[0]))
	out := make([]DocId, 0, len(inputs[0]))
	for _, id := range inputs[0] {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		inAll := true
		for _, s := range sets {
			if _, ok := s[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, id)
		}
	}
	return out
}

// Union is a de-duplicated concatenation in input order.
func Union(inputs ...[]DocId) []DocId {
	seen := make(map[DocId]struct{})
	var out []DocId
	for _, in := range inputs {
		for _, id := range in {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// IntersectUnion computes the intersection of primary, then unions with
// every mandatory sub-array, per spec.md §4.G "Intersect-Union (with
// mandatory set)".
func IntersectUnion(primary [][]DocId, mandatory ...[]DocId) []DocId {
	base := Intersect(primary...)
	all := append([][]DocId{base}, mandatory...)
	return Union(all...)
}

// Difference removes every DocId present in excludes, early-stopping once
// limit results have been produced (limit<=0 means unbounded), per
// spec.md §4.G.
func Difference(input []DocId, excludes []DocId, limit int) []DocId {
	ex := toSet(excludes)
	out := make([]DocId, 0, len(input))
	for _, id := range input {
		if _, excluded := ex[id]; excluded {
			continue
		}
		out = append(out, id)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// XOR returns DocIds appearing in exactly one input across all inputs.
func XOR(inputs ...[]DocId) []DocId {
	counts := make(map[DocId]int)
	var order []DocId
	for _, in := range inputs {
		seenHere := make(map[DocId]struct{})
		for _, id := range in {
			if _, dup := seenHere[id]; dup {
				continue
			}
			seenHere[id] = struct{}{}
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
	}
	out := make([]DocId, 0, len(order))
	for _, id := range order {
		if counts[id] == 1 {
			out = append(out, id)
		}
	}
	return out
}

func toSet(ids []DocId) map[DocId]struct{} {
	m := make(map[DocId]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// ResolutionIntersect implements spec.md §4.G's "Resolution-aware
// intersection": for `length` inputs, allocate up to `resolution` slots; a
// DocId seen k times enters slot k-1. strict returns the last slot
// (count==length); suggest returns the union across all slots.
func ResolutionIntersect(inputsPerTerm [][]DocId, resolution int, suggest bool) []DocId {
	length := len(inputsPerTerm)
	if length == 0 {
		return nil
	}
	if resolution <= 0 {
		resolution = length
	}
	slots := make([][]DocId, resolution)
	counts := make(map[DocId]int)
	firstSeenOrder := make([]DocId, 0)
	for _, termIDs := range inputsPerTerm {
		seenHere := make(map[DocId]struct{}, len(termIDs))
		for _, id := range termIDs {
			if _, dup := seenHere[id]; dup {
				continue
			}
			seenHere[id] = struct{}{}
			if counts[id] == 0 {
				firstSeenOrder = append(firstSeenOrder, id)
			}
			counts[id]++
		}
	}
	for _, id := range firstSeenOrder {
		k := counts[id]
		slot := k - 1
		if slot < 0 {
			slot = 0
		}
		if slot >= resolution {
			slot = resolution - 1
		}
		slots[slot] = append(slots[slot], id)
	}

	if !suggest {
		if length-1 < resolution {
			return slots[length-1]
		}
		return slots[resolution-1]
	}

	var out []DocId
	seen := make(map[DocId]struct{})
	for i := len(slots) - 1; i >= 0; i-- {
		for _, id := range slots[i] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Bitmap-typed overloads of the set operations (§4.G), grounded on the
// teacher's query.go usage of roaring.And/Or/AndNot. QueryBuilder does not
// call them; it applies roaring.And/Or/AndNot directly.

func IntersectBitmaps(bitmaps ...*roaring.Bitmap) *roaring.Bitmap {
	if len(bitmaps) == 0 {
		return roaring.NewBitmap()
	}
	result := bitmaps[0].Clone()
	for _, bm := range bitmaps[1:] {
		result.And(bm)
	}
	return result
}

func UnionBitmaps(bitmaps ...*roaring.Bitmap) *roaring.Bitmap {
	return roaring.FastOr(bitmaps...)
}

func DifferenceBitmaps(base *roaring.Bitmap, excludes ...*roaring.Bitmap) *roaring.Bitmap {
	result := base.Clone()
	for _, ex := range excludes {
		result.AndNot(ex)
	}
	return result
}

func XORBitmaps(bitmaps ...*roaring.Bitmap) *roaring.Bitmap {
	if len(bitmaps) == 0 {
		return roaring.NewBitmap()
	}
	result := bitmaps[0].Clone()
	for _, bm := range bitmaps[1:] {
		result.Xor(bm)
	}
	return result
}
