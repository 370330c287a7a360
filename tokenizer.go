package flexsearch

// TokenizeMode selects which substrings of each encoded term are indexed,
// per spec.md §4.E / GLOSSARY.
type TokenizeMode int

const (
	TokenizeStrict TokenizeMode = iota
	TokenizeForward
	TokenizeReverse
	TokenizeFull
	TokenizeBidirectional
)

func (m TokenizeMode) String() string {
	switch m {
	case TokenizeStrict:
		return "strict"
	case TokenizeForward:
		return "forward"
	case TokenizeReverse:
		return "reverse"
	case TokenizeFull:
		return "full"
	case TokenizeBidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

// getScore implements the resolution-bucket formula of spec.md §3,
// verified against original_source/.../index/builder.rs::get_score.
//
//	if position == 0 or resolution <= 1:      0
//	else if length+termLength <= resolution:  position + offset
//	else: floor((resolution-1)/(length+termLength) * (position+offset) + 1)
func getScore(resolution, length, position int, termLength, offset int) int {
	if position == 0 || resolution <= 1 {
		return 0
	}
	total := length + termLength
	if total <= resolution {
		return position + offset
	}
	return int(float64(resolution-1)/float64(total)*float64(position+offset) + 1.0)
}

// emittedToken is one (token, bucket) pair produced while tokenizing one
// document term, optionally paired with a context keyword when it is a
// context-index entry (keyword, neighbor) rather than a plain term.
type emittedToken struct {
	token   string
	bucket  int
	isCtx   bool
	ctxTerm string // the "other side" of a context pair
}

// tokenizeTerm enumerates the tokens a single encoded term contributes to
// the index under mode, given its position i (0-based) among wordLength
// total terms, per spec.md §4.E and
// original_source/.../index/builder.rs::add_document's per-mode branches.
func tokenizeTerm(mode TokenizeMode, term string, i, wordLength, resolution int, rtl bool) []emittedToken {
	runes := []rune(term)
	termLength := len(runes)
	if termLength == 0 {
		return nil
	}
	score := getScore(resolution, wordLength, i, termLength, 0)

	switch mode {
	case TokenizeStrict:
		return []emittedToken{{token: term, bucket: score}}

	case TokenizeForward:
		return forwardTokens(runes, i, wordLength, resolution, rtl)

	case TokenizeReverse:
		return reverseTokens(runes, i, wordLength, resolution, rtl)

	case TokenizeFull:
		return fullTokens(runes, i, wordLength, resolution, rtl)

	case TokenizeBidirectional:
		out := reverseTokens(runes, i, wordLength, resolution, rtl)
		out = append(out, forwardTokens(runes, i, wordLength, resolution, rtl)...)
		return out

	default:
		return []emittedToken{{token: term, bucket: score}}
	}
}

// forwardTokens emits the term plus every prefix (strict-addForward),
// grounded on builder.rs::add_forward: characters are appended one at a
// time (respecting rtl), indexing every growing prefix.
func forwardTokens(runes []rune, i, wordLength, resolution int, rtl bool) []emittedToken {
	n := len(runes)
	if n <= 1 {
		score := getScore(resolution, wordLength, i, n, 0)
		return []emittedToken{{token: string(runes), bucket: score}}
	}
	out := make([]emittedToken, 0, n)
	var buf []rune
	for x := 0; x < n; x++ {
		idx := x
		if rtl {
			idx = n - 1 - x
		}
		buf = append(buf, runes[idx])
		score := getScore(resolution, wordLength, i, n, 0)
		out = append(out, emittedToken{token: string(buf), bucket: score})
	}
	return out
}

// reverseTokens emits every suffix of the term, offset-scored so suffixes
// closer to the term's own position get lower-numbered buckets, grounded
// on builder.rs's Reverse/Bidirectional inline block.
func reverseTokens(runes []rune, i, wordLength, resolution int, rtl bool) []emittedToken {
	n := len(runes)
	if n <= 1 {
		score := getScore(resolution, wordLength, i, n, 0)
		return []emittedToken{{token: string(runes), bucket: score}}
	}
	out := make([]emittedToken, 0, n)
	for x := n - 1; x >= 1; x-- {
		start := x
		if rtl {
			start = n - 1 - x
		}
		suffix := string(runes[start:])
		score := getScore(resolution, wordLength, i, n, x)
		out = append(out, emittedToken{token: suffix, bucket: score})
	}
	full := string(runes)
	out = append(out, emittedToken{token: full, bucket: getScore(resolution, wordLength, i, n, 0)})
	return out
}

// fullTokens emits every substring of the term (mode Full), grounded on
// builder.rs's Full branch: for term_length > 2, all [x:y) windows; else
// falls back to strict indexing of the whole term.
func fullTokens(runes []rune, i, wordLength, resolution int, rtl bool) []emittedToken {
	n := len(runes)
	if n <= 2 {
		return []emittedToken{{token: string(runes), bucket: getScore(resolution, wordLength, i, n, 0)}}
	}
	out := make([]emittedToken, 0, n*n/2)
	for x := 0; x < n; x++ {
		for y := n; y > x; y-- {
			xIdx := x
			if rtl {
				xIdx = n - 1 - x
			}
			token := string(runes[x:y])
			score := getScore(resolution, wordLength, i, n, xIdx)
			out = append(out, emittedToken{token: token, bucket: score})
		}
	}
	return out
}

// contextNeighbors enumerates the neighbor terms within depth positions
// used to populate the context index, grounded on
// builder.rs::add_context. bidirectional canonicalizes (keyword, neighbor)
// ordering lexicographically.
func contextNeighbors(encoded []string, i, depth, wordLength, resolutionCtx int, rtl, bidirectional bool) []emittedToken {
	keyword := encoded[i]
	size := depth
	if rtl {
		if i+1 < size {
			size = i + 1
		}
	} else if wordLength-i < size {
		size = wordLength - i
	}

	seen := map[string]struct{}{keyword: {}}
	var out []emittedToken

	for x := 1; x < size; x++ {
		var termIdx int
		if rtl {
			termIdx = wordLength - 1 - i - x
		} else {
			termIdx = i + x
		}
		if termIdx < 0 || termIdx >= wordLength {
			break
		}
		neighbor := encoded[termIdx]
		if neighbor == "" {
			continue
		}
		if _, ok := seen[neighbor]; ok {
			continue
		}
		seen[neighbor] = struct{}{}

		adjustment := 1
		if wordLength/2 > resolutionCtx {
			adjustment = 0
		}
		score := getScore(resolutionCtx+adjustment, wordLength, i, size-1, x-1)

		ctxTerm, ctxKeyword := neighbor, keyword
		if bidirectional && neighbor > keyword {
			ctxTerm, ctxKeyword = keyword, neighbor
		}
		out = append(out, emittedToken{token: ctxTerm, bucket: score, isCtx: true, ctxTerm: ctxKeyword})
	}
	return out
}
