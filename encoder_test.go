package flexsearch

import (
	"reflect"
	"regexp"
	"testing"
)

func TestEncoder_DefaultPipeline_StemsAndDropsStopwords(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("the running foxes")
	for _, tok := range got {
		if tok == "the" {
			t.Errorf("Encode() kept the stopword %q", tok)
		}
	}
	if len(got) == 0 {
		t.Fatal("Encode() returned no tokens")
	}
}

func TestEncoder_Normalize(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("Héllo")
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("Encode(Héllo) = %v, want [hello]", got)
	}
}

func TestEncoder_MinMaxLength(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 3
	cfg.MaxLength = 5
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("a bb ccc dddddd eeeee")
	want := []string{"ccc", "eeeee"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode() = %v, want %v", got, want)
	}
}

func TestEncoder_Dedupe(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.Dedupe = true
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("fox fox fox")
	if len(got) != 1 || got[0] != "fox" {
		t.Errorf("Encode() with Dedupe = %v, want a single 'fox'", got)
	}
}

func TestEncoder_CustomMatcher(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.Matcher = map[string]string{"color": "colour"}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("color")
	if len(got) != 1 || got[0] != "colour" {
		t.Errorf("Encode(color) = %v, want [colour]", got)
	}
}

func TestEncoder_CustomReplacer(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.Replacer = []ReplaceRule{{Pattern: regexp.MustCompile(`ph`), Replacement: "f"}}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("phone")
	if len(got) != 1 || got[0] != "fone" {
		t.Errorf("Encode(phone) = %v, want [fone]", got)
	}
}

func TestEncoder_CustomMapper(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.Mapper = map[rune]rune{'0': 'o'}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("h0use")
	if len(got) != 1 || got[0] != "house" {
		t.Errorf("Encode(h0use) = %v, want [house]", got)
	}
}

func TestEncoder_SplitWhole(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 0
	cfg.SplitMode = SplitWhole
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("hello, world!")
	if len(got) != 1 || got[0] != "hello, world!" {
		t.Errorf("Encode() with SplitWhole = %v, want the text as one token", got)
	}
}

func TestEncoder_SplitLiteral(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 0
	cfg.SplitMode = SplitLiteralMode
	cfg.SplitLiteral = ","
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("a,b,c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode() with literal split = %v, want %v", got, want)
	}
}

func TestEncoder_CustomStemmerRules(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.StemmerRules = []SuffixRule{{Suffix: "ing", Replacement: ""}}
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("running")
	if len(got) != 1 || got[0] != "runn" {
		t.Errorf("Encode(running) with custom stemmer = %v, want [runn]", got)
	}
}

func TestEncoder_PrepareAndFinalizeHooks(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 0
	cfg.Prepare = func(s string) string { return s + " extra" }
	cfg.Finalize = func(toks []string) []string { return append(toks, "tail") }
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("base")
	want := []string{"base", "extra", "tail"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode() with Prepare/Finalize = %v, want %v", got, want)
	}
}

func TestEncoder_NumericSplitOption(t *testing.T) {
	cfg := DefaultEncoderConfig()
	cfg.EnableStemming = false
	cfg.Filter = nil
	cfg.MinLength = 1
	cfg.Numeric = true
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	got := enc.Encode("x123456y")
	found := false
	for _, tok := range got {
		if tok == "456y" || tok == "y" {
			found = true
		}
	}
	if !found {
		t.Errorf("Encode() with Numeric = %v, want the long digit run split apart", got)
	}
}

func TestEncoder_InputCacheReturnsIndependentCopies(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	first := enc.Encode("fox jumps")
	first[0] = "tampered"
	second := enc.Encode("fox jumps")
	if len(second) == 0 || second[0] == "tampered" {
		t.Errorf("Encode() cached result was mutated by the caller: %v", second)
	}
}

func TestEncoderConfig_Validate_MinGreaterThanMax(t *testing.T) {
	cfg := EncoderConfig{MinLength: 5, MaxLength: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with MinLength > MaxLength returned no error")
	}
}

func TestEncoderConfig_Validate_FilterTooLarge(t *testing.T) {
	filter := make(map[string]struct{}, maxFilterEntries+1)
	for i := 0; i < maxFilterEntries+1; i++ {
		filter[string(rune(i))] = struct{}{}
	}
	cfg := EncoderConfig{Filter: filter}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with an oversize filter returned no error")
	}
}

func TestEncoderConfig_Validate_NilReplacerPattern(t *testing.T) {
	cfg := EncoderConfig{Replacer: []ReplaceRule{{Pattern: nil, Replacement: "x"}}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with a nil replacer pattern returned no error")
	}
}

func TestNewEncoder_InvalidConfigPropagatesError(t *testing.T) {
	_, err := NewEncoder(EncoderConfig{MinLength: 10, MaxLength: 2})
	if err == nil {
		t.Error("NewEncoder() with an invalid config returned no error")
	}
}

func TestApplySuffixRules_StopsAtTwoCharacters(t *testing.T) {
	rules := []SuffixRule{{Suffix: "s", Replacement: ""}}
	got := applySuffixRules("as", rules)
	if got != "as" {
		t.Errorf("applySuffixRules() = %q, want unchanged once length <= 2", got)
	}
}
