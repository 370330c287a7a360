package flexsearch

import "testing"

func TestNormalize_FoldsAccentsAndLowercases(t *testing.T) {
	got := Normalize("Héllo Wörld")
	if got != "hello world" {
		t.Errorf("Normalize() = %q, want %q", got, "hello world")
	}
}

func TestNormalize_PlainASCIIJustLowercases(t *testing.T) {
	got := Normalize("Quick BROWN Fox")
	if got != "quick brown fox" {
		t.Errorf("Normalize() = %q, want %q", got, "quick brown fox")
	}
}

func TestSoundex_Smith(t *testing.T) {
	if got := Soundex("Smith"); got != "S53" {
		t.Errorf("Soundex(Smith) = %q, want S53 (no zero-padding)", got)
	}
}

func TestSoundex_EmptyString(t *testing.T) {
	if got := Soundex(""); got != "" {
		t.Errorf("Soundex(\"\") = %q, want empty", got)
	}
}

func TestSoundex_IgnoresHAndW(t *testing.T) {
	got := Soundex("Ashcraft")
	if len(got) == 0 || got[0] != 'A' {
		t.Errorf("Soundex(Ashcraft) = %q, want it to start with A", got)
	}
}

func TestSoundex_TruncatesAtFourCharacters(t *testing.T) {
	got := Soundex("Robertson")
	if len(got) > 4 {
		t.Errorf("Soundex(Robertson) = %q, want at most 4 characters", got)
	}
}

func TestNumericSplit_ShortInputUnchanged(t *testing.T) {
	if got := NumericSplit("123"); got != "123" {
		t.Errorf("NumericSplit(123) = %q, want unchanged (len<=3)", got)
	}
}

func TestNumericSplit_InsertsSpaceEveryThreeDigits(t *testing.T) {
	got := NumericSplit("abc123456def")
	want := "abc 123 456 def"
	if got != want {
		t.Errorf("NumericSplit() = %q, want %q", got, want)
	}
}

func TestNumericSplit_ShortDigitRunUnaffected(t *testing.T) {
	got := NumericSplit("item42units")
	if got != "item42units" {
		t.Errorf("NumericSplit() = %q, want unchanged for a short digit run", got)
	}
}

func TestDefaultTokenize_SplitsOnNonAlphanumeric(t *testing.T) {
	got := defaultTokenize("hello, world! foo-bar")
	want := []string{"hello", "world", "foo", "bar"}
	if len(got) != len(want) {
		t.Fatalf("defaultTokenize() = %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i], w)
		}
	}
}
