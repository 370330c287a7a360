package flexsearch

import "testing"

func TestTokenizeMode_String(t *testing.T) {
	cases := []struct {
		mode TokenizeMode
		want string
	}{
		{TokenizeStrict, "strict"},
		{TokenizeForward, "forward"},
		{TokenizeReverse, "reverse"},
		{TokenizeFull, "full"},
		{TokenizeBidirectional, "bidirectional"},
		{TokenizeMode(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.mode.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.mode, got, c.want)
		}
	}
}

func TestGetScore_ZeroPositionOrResolutionOne(t *testing.T) {
	if got := getScore(9, 5, 0, 3, 0); got != 0 {
		t.Errorf("getScore(position=0) = %d, want 0", got)
	}
	if got := getScore(1, 5, 2, 3, 0); got != 0 {
		t.Errorf("getScore(resolution=1) = %d, want 0", got)
	}
}

func TestGetScore_ShortWordAddsOffset(t *testing.T) {
	got := getScore(9, 2, 1, 2, 1)
	if got != 2 {
		t.Errorf("getScore() = %d, want position+offset=2", got)
	}
}

func TestTokenizeTerm_Strict(t *testing.T) {
	out := tokenizeTerm(TokenizeStrict, "fox", 0, 3, 9, false)
	if len(out) != 1 || out[0].token != "fox" {
		t.Errorf("tokenizeTerm(strict) = %+v, want a single whole-term token", out)
	}
}

func TestTokenizeTerm_ForwardEmitsGrowingPrefixes(t *testing.T) {
	out := tokenizeTerm(TokenizeForward, "cat", 0, 1, 9, false)
	want := []string{"c", "ca", "cat"}
	if len(out) != len(want) {
		t.Fatalf("tokenizeTerm(forward) = %+v, want %d tokens", out, len(want))
	}
	for i, w := range want {
		if out[i].token != w {
			t.Errorf("out[%d].token = %q, want %q", i, out[i].token, w)
		}
	}
}

func TestTokenizeTerm_ForwardRTLReversesCharacterOrder(t *testing.T) {
	out := tokenizeTerm(TokenizeForward, "cat", 0, 1, 9, true)
	want := []string{"t", "ta", "tac"}
	for i, w := range want {
		if out[i].token != w {
			t.Errorf("out[%d].token = %q, want %q (rtl)", i, out[i].token, w)
		}
	}
}

func TestTokenizeTerm_ReverseEmitsSuffixesThenWhole(t *testing.T) {
	out := tokenizeTerm(TokenizeReverse, "cat", 0, 1, 9, false)
	last := out[len(out)-1]
	if last.token != "cat" {
		t.Errorf("last emitted token = %q, want the whole term last", last.token)
	}
	for _, tok := range out[:len(out)-1] {
		if len(tok.token) == 0 {
			t.Error("reverse tokens should never be empty")
		}
	}
}

func TestTokenizeTerm_FullEmitsAllSubstrings(t *testing.T) {
	out := tokenizeTerm(TokenizeFull, "abcd", 0, 1, 9, false)
	seen := map[string]bool{}
	for _, tok := range out {
		seen[tok.token] = true
	}
	for _, want := range []string{"a", "ab", "abc", "abcd", "b", "bc", "bcd", "c", "cd", "d"} {
		if !seen[want] {
			t.Errorf("full tokenization of %q is missing substring %q", "abcd", want)
		}
	}
}

func TestTokenizeTerm_FullShortTermFallsBackToWhole(t *testing.T) {
	out := tokenizeTerm(TokenizeFull, "ab", 0, 1, 9, false)
	if len(out) != 1 || out[0].token != "ab" {
		t.Errorf("tokenizeTerm(full, len<=2) = %+v, want a single whole-term token", out)
	}
}

func TestTokenizeTerm_BidirectionalCombinesReverseAndForward(t *testing.T) {
	fwd := tokenizeTerm(TokenizeForward, "cat", 0, 1, 9, false)
	rev := tokenizeTerm(TokenizeReverse, "cat", 0, 1, 9, false)
	bidi := tokenizeTerm(TokenizeBidirectional, "cat", 0, 1, 9, false)
	if len(bidi) != len(fwd)+len(rev) {
		t.Errorf("len(bidirectional) = %d, want %d (forward+reverse)", len(bidi), len(fwd)+len(rev))
	}
}

func TestContextNeighbors_SkipsSelfAndDuplicates(t *testing.T) {
	encoded := []string{"the", "quick", "quick", "fox"}
	out := contextNeighbors(encoded, 1, 3, len(encoded), 9, false, false)
	for _, tok := range out {
		if tok.token == "quick" {
			t.Error("contextNeighbors emitted the keyword itself as a neighbor")
		}
	}
	seen := map[string]int{}
	for _, tok := range out {
		seen[tok.token]++
	}
	for term, count := range seen {
		if count > 1 {
			t.Errorf("neighbor %q emitted %d times, want at most once", term, count)
		}
	}
}

func TestContextNeighbors_BidirectionalCanonicalizesOrder(t *testing.T) {
	encoded := []string{"zebra", "apple"}
	out := contextNeighbors(encoded, 0, 2, len(encoded), 9, false, true)
	if len(out) != 1 {
		t.Fatalf("contextNeighbors() = %+v, want one neighbor pair", out)
	}
	// "apple" < "zebra" lexicographically, so no swap is needed: the
	// neighbor ("apple") stays the token and the keyword ("zebra") stays
	// the paired ctxTerm.
	if out[0].token != "apple" || out[0].ctxTerm != "zebra" {
		t.Errorf("contextNeighbors() pair = (term=%q, ctxTerm=%q), want (apple, zebra)", out[0].token, out[0].ctxTerm)
	}
}
