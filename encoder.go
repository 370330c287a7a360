package flexsearch

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	snowballeng "github.com/kljensen/snowball/english"
)

// Size limits enforced at construction time, per spec.md §4.A failure
// semantics.
const (
	maxFilterEntries  = 10000
	maxMatcherEntries = 5000
	maxMapperEntries  = 1000
	maxStemmerRules   = 1000
	defaultCacheSize  = 200000
	defaultCacheInput = 128
)

// ReplaceRule is one (regex, replacement) pair applied in order, per the
// "replacer" option.
type ReplaceRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// SuffixRule is an ordered suffix->replacement stemming rule, applied
// iteratively until no rule fires or the token is <= 2 characters. Offered
// alongside the built-in snowball stemmer for callers who configure a
// custom stemmer, grounded on original_source/.../encoder/transform.rs's
// ordered-suffix-rule stemmer shape.
type SuffixRule struct {
	Suffix      string
	Replacement string
}

// EncoderConfig mirrors spec.md §4.A's configuration table. Dynamic
// pipeline callbacks (prepare/finalize/filter) are realized as a fixed
// tagged-variant set of function fields rather than an interface, per
// spec.md §9's guidance for languages without heterogeneous dynamic
// dispatch.
type EncoderConfig struct {
	Normalize bool
	// Split: nil -> default regex-ish split; non-nil empty slice marker via
	// SplitLiteral below; to keep the zero value meaningful, use
	// SplitMode + SplitLiteral together.
	SplitMode    SplitMode
	SplitLiteral string // used when SplitMode == SplitLiteralMode

	Numeric bool
	RTL     bool
	Dedupe  bool

	MinLength int
	MaxLength int

	Filter  map[string]struct{}
	FilterFunc func(string) bool

	Matcher map[string]string

	Mapper map[rune]rune

	EnableStemming bool
	StemmerRules   []SuffixRule // custom stemmer; if empty, snowball english is used

	Replacer []ReplaceRule

	Prepare  func(string) string
	Finalize func([]string) []string

	CacheEnabled bool
	CacheSize    int
	CacheInput   int
}

// SplitMode selects how Config.Split behaves, per spec.md:
// "Empty string ⇒ treat input as single token; non-empty string ⇒ literal
// split; absent ⇒ split on [^\p{L}\p{N}]+".
type SplitMode int

const (
	SplitDefault SplitMode = iota
	SplitWhole             // empty-string split: whole input is one token
	SplitLiteralMode
)

// DefaultEncoderConfig matches the teacher's DefaultConfig() defaults
// (MinTokenLength 2, stemming and stopwords enabled) extended with the
// spec's cache defaults.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Normalize:      true,
		MinLength:      2,
		MaxLength:      0, // 0 = unbounded
		EnableStemming: true,
		Filter:         englishStopwords,
		CacheEnabled:   true,
		CacheSize:      defaultCacheSize,
		CacheInput:     defaultCacheInput,
	}
}

// Validate enforces spec.md §4.A's construction-time failure semantics.
func (c EncoderConfig) Validate() error {
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: minlength %d > maxlength %d", ErrConfigInvalid, c.MinLength, c.MaxLength)
	}
	if len(c.Filter) > maxFilterEntries {
		return fmt.Errorf("%w: filter set too large (%d > %d)", ErrEncodingOversize, len(c.Filter), maxFilterEntries)
	}
	if len(c.Matcher) > maxMatcherEntries {
		return fmt.Errorf("%w: matcher too large (%d > %d)", ErrEncodingOversize, len(c.Matcher), maxMatcherEntries)
	}
	if len(c.Mapper) > maxMapperEntries {
		return fmt.Errorf("%w: mapper too large (%d > %d)", ErrEncodingOversize, len(c.Mapper), maxMapperEntries)
	}
	if len(c.StemmerRules) > maxStemmerRules {
		return fmt.Errorf("%w: stemmer rules too large (%d > %d)", ErrEncodingOversize, len(c.StemmerRules), maxStemmerRules)
	}
	for _, r := range c.Replacer {
		if r.Pattern == nil {
			return fmt.Errorf("%w: nil replacer pattern", ErrInvalidRegex)
		}
	}
	return nil
}

// Encoder is the text-analysis pipeline, §4.A. Deterministic given its
// configuration, thread-safe for concurrent Encode calls; its two LRUs
// are the only interior-mutable state.
type Encoder struct {
	cfg EncoderConfig

	inputCache *lru.Cache[string, []string]
	tokenCache *lru.Cache[string, string]
}

// NewEncoder constructs an Encoder, validating cfg per Validate().
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{cfg: cfg}
	if cfg.CacheEnabled {
		size := cfg.CacheSize
		if size <= 0 {
			size = defaultCacheSize
		}
		inputCache, err := lru.New[string, []string](size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		tokenCache, err := lru.New[string, string](size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		e.inputCache = inputCache
		e.tokenCache = tokenCache
	}
	return e, nil
}

func (e *Encoder) cacheInputCap() int {
	if e.cfg.CacheInput > 0 {
		return e.cfg.CacheInput
	}
	return defaultCacheInput
}

// hasTokenTransforms reports whether any token-level transform is
// configured, gating the §4.A "fast path".
func (e *Encoder) hasTokenTransforms() bool {
	c := e.cfg
	return c.FilterFunc != nil || len(c.Filter) > 0 || len(c.Matcher) > 0 ||
		len(c.Mapper) > 0 || c.EnableStemming || len(c.StemmerRules) > 0 || len(c.Replacer) > 0
}

// Encode runs the full pipeline: cache lookup (on the raw text) -> normalize -> prepare ->
// numeric split -> split -> per-token stages -> finalize -> cache insert.
func (e *Encoder) Encode(text string) []string {
	if e.cfg.CacheEnabled && e.inputCache != nil && len([]rune(text)) <= e.cacheInputCap() {
		if cached, ok := e.inputCache.Get(text); ok {
			out := make([]string, len(cached))
			copy(out, cached)
			return out
		}
	}

	working := text
	if e.cfg.Normalize {
		working = Normalize(working)
	}
	if e.cfg.Prepare != nil {
		working = e.cfg.Prepare(working)
	}
	if e.cfg.Numeric {
		working = NumericSplit(working)
	}

	tokens := e.split(working)
	tokens = e.applyTokenPipeline(tokens)

	if e.cfg.Finalize != nil {
		tokens = e.cfg.Finalize(tokens)
	}

	if e.cfg.CacheEnabled && e.inputCache != nil && len([]rune(text)) <= e.cacheInputCap() {
		stored := make([]string, len(tokens))
		copy(stored, tokens)
		e.inputCache.Add(text, stored)
	}
	return tokens
}

func (e *Encoder) split(text string) []string {
	switch e.cfg.SplitMode {
	case SplitWhole:
		if text == "" {
			return nil
		}
		return []string{text}
	case SplitLiteralMode:
		if e.cfg.SplitLiteral == "" {
			return []string{text}
		}
		return strings.Split(text, e.cfg.SplitLiteral)
	default:
		return defaultTokenize(text)
	}
}

// applyTokenPipeline runs length filter, dedupe, stopword filter, per-token
// cache, stemmer, mapper, matcher, replacer, per-token cache insert, and
// duplicate-vs-last suppression, per spec.md §4.A's pipeline order.
func (e *Encoder) applyTokenPipeline(tokens []string) []string {
	if !e.hasTokenTransforms() {
		return e.lengthAndDedupe(tokens)
	}

	filtered := e.lengthAndDedupe(tokens)
	out := make([]string, 0, len(filtered))
	var lastOut string
	for i, tok := range filtered {
		if e.isStopword(tok) {
			continue
		}

		transformed, hit := e.tokenCacheGet(tok)
		if !hit {
			transformed = tok
			if e.cfg.EnableStemming && len(e.cfg.StemmerRules) == 0 {
				transformed = snowballeng.Stem(transformed, false)
			} else if len(e.cfg.StemmerRules) > 0 {
				transformed = applySuffixRules(transformed, e.cfg.StemmerRules)
			}
			transformed = e.applyMapper(transformed)
			transformed = e.applyMatcher(transformed)
			transformed = e.applyReplacer(transformed)
			e.tokenCacheSet(tok, transformed)
		}

		if e.cfg.Dedupe && i > 0 && transformed == lastOut {
			continue
		}
		lastOut = transformed
		out = append(out, transformed)
	}
	return out
}

func (e *Encoder) lengthAndDedupe(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		rl := len([]rune(tok))
		if rl < e.cfg.MinLength {
			continue
		}
		if e.cfg.MaxLength > 0 && rl > e.cfg.MaxLength {
			continue
		}
		if e.cfg.Dedupe {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
		}
		out = append(out, tok)
	}
	return out
}

func (e *Encoder) isStopword(tok string) bool {
	if e.cfg.FilterFunc != nil {
		return e.cfg.FilterFunc(tok)
	}
	if e.cfg.Filter != nil {
		_, stop := e.cfg.Filter[tok]
		return stop
	}
	return false
}

func (e *Encoder) applyMapper(tok string) string {
	if len(e.cfg.Mapper) == 0 {
		return tok
	}
	var b strings.Builder
	var lastMapped rune
	mappedPrev := false
	for _, r := range tok {
		mapped, ok := e.cfg.Mapper[r]
		if !ok {
			mapped = r
		}
		if e.cfg.Dedupe && ok && mappedPrev && mapped == lastMapped {
			continue // collapse runs of the mapped character
		}
		b.WriteRune(mapped)
		lastMapped = mapped
		mappedPrev = ok
	}
	return b.String()
}

func (e *Encoder) applyMatcher(tok string) string {
	if replacement, ok := e.cfg.Matcher[tok]; ok {
		return replacement
	}
	return tok
}

func (e *Encoder) applyReplacer(tok string) string {
	for _, rule := range e.cfg.Replacer {
		tok = rule.Pattern.ReplaceAllString(tok, rule.Replacement)
	}
	return tok
}

func (e *Encoder) tokenCacheGet(tok string) (string, bool) {
	if !e.cfg.CacheEnabled || e.tokenCache == nil || len([]rune(tok)) > e.cacheInputCap() {
		return "", false
	}
	return e.tokenCache.Get(tok)
}

func (e *Encoder) tokenCacheSet(tok, transformed string) {
	if !e.cfg.CacheEnabled || e.tokenCache == nil || len([]rune(tok)) > e.cacheInputCap() {
		return
	}
	e.tokenCache.Add(tok, transformed)
}

// applySuffixRules iteratively applies ordered suffix rules until none fire
// or the token is <= 2 characters, per spec.md's "stemmer" option.
func applySuffixRules(tok string, rules []SuffixRule) string {
	for {
		if len([]rune(tok)) <= 2 {
			return tok
		}
		fired := false
		for _, r := range rules {
			if strings.HasSuffix(tok, r.Suffix) {
				tok = strings.TrimSuffix(tok, r.Suffix) + r.Replacement
				fired = true
				break
			}
		}
		if !fired {
			return tok
		}
	}
}

// SetStemmerRules/SetFilter/SetMapper/SetMatcher/SetReplacer reconfigure the
// encoder and purge both LRUs, per spec.md §4.A cache policy: "Adding any
// stemmer/filter/mapper/matcher/replacer entry clears both caches."

func (e *Encoder) SetStemmerRules(rules []SuffixRule) {
	e.cfg.StemmerRules = rules
	e.purgeCaches()
}

func (e *Encoder) SetFilter(stop map[string]struct{}) {
	e.cfg.Filter = stop
	e.purgeCaches()
}

func (e *Encoder) SetMapper(mapper map[rune]rune) {
	e.cfg.Mapper = mapper
	e.purgeCaches()
}

func (e *Encoder) SetMatcher(matcher map[string]string) {
	e.cfg.Matcher = matcher
	e.purgeCaches()
}

func (e *Encoder) SetReplacer(rules []ReplaceRule) {
	e.cfg.Replacer = rules
	e.purgeCaches()
}

func (e *Encoder) purgeCaches() {
	if e.inputCache != nil {
		e.inputCache.Purge()
	}
	if e.tokenCache != nil {
		e.tokenCache.Purge()
	}
}
