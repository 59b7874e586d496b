package vo

import (
	"regexp"
	"strings"
)

// Language resolution for transcripts. Priority is fixed: provider-reported
// language, then the payload hint, then heuristic detection over the text,
// then the default.

// LanguageSource 最终语言的来源
type LanguageSource string

const (
	LanguageSourceProvider LanguageSource = "provider"
	LanguageSourceHint     LanguageSource = "hint"
	LanguageSourceDetected LanguageSource = "detected"
	LanguageSourceDefault  LanguageSource = "default"
)

// DefaultLanguage 兜底语言
const DefaultLanguage = "en"

var langRe = regexp.MustCompile(`^[a-zA-Z]{2,3}([_-][a-zA-Z]{2})?$`)

// NormalizeLanguage 规范化语言代码为两位小写
func NormalizeLanguage(lang string) string {
	x := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if x == "" {
		return ""
	}
	if !langRe.MatchString(x) {
		x = strings.SplitN(x, "-", 2)[0]
	}
	x = strings.ToLower(x)
	if len(x) < 2 {
		return ""
	}
	return x[:2]
}

// ResolveLanguage 按固定优先级确定最终语言
func ResolveLanguage(providerLang, hint, text string) (string, LanguageSource) {
	if p := NormalizeLanguage(providerLang); p != "" {
		return p, LanguageSourceProvider
	}
	if h := NormalizeLanguage(hint); h != "" {
		return h, LanguageSourceHint
	}
	if d := DetectLanguage(text); d != "" {
		return d, LanguageSourceDetected
	}
	return DefaultLanguage, LanguageSourceDefault
}

var tokenRe = regexp.MustCompile(`[\p{L}]+`)

// Small high-signal stopword sets per language. Scoring is deterministic;
// ties break by the fixed priority order below.
var stopwords = map[string][]string{
	"en": {"the", "and", "is", "are", "to", "of", "in", "for", "that", "this", "with", "on", "not", "you", "it", "as", "be"},
	"fr": {"le", "la", "les", "des", "un", "une", "et", "est", "pour", "dans", "que", "qui", "avec", "sur", "pas", "plus", "ce"},
	"de": {"der", "die", "das", "und", "ist", "für", "nicht", "mit", "auf", "ein", "eine", "dass", "zu", "im", "in"},
	"es": {"el", "la", "los", "las", "y", "es", "para", "en", "que", "con", "no", "más", "por", "una", "un", "esto"},
	"it": {"il", "lo", "la", "gli", "le", "e", "è", "per", "che", "con", "non", "più", "una", "un", "nel"},
	"pt": {"o", "a", "os", "as", "e", "é", "para", "em", "que", "com", "não", "mais", "por", "uma", "um"},
	"nl": {"de", "het", "een", "en", "is", "voor", "in", "met", "niet", "op", "dat", "dit", "van"},
	"sv": {"och", "att", "det", "som", "är", "för", "med", "inte", "på", "en", "ett"},
	"pl": {"i", "że", "to", "na", "w", "z", "nie", "jest", "dla"},
	"tr": {"ve", "bir", "bu", "için", "ile", "değil", "çok", "ama", "da"},
	"uk": {"і", "в", "на", "що", "не", "це", "як", "з", "для"},
	"ru": {"и", "в", "на", "что", "не", "это", "как", "с", "для"},
}

// Stable tie-breaker order for detection.
var detectOrder = []string{"fr", "en", "de", "es", "it", "pt", "nl", "sv", "pl", "tr", "uk", "ru"}

var stopwordSets = func() map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{}, len(stopwords))
	for lang, words := range stopwords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		sets[lang] = set
	}
	return sets
}()

// DetectLanguage 基于停用词的确定性启发式语言检测
func DetectLanguage(text string) string {
	if text == "" {
		return DefaultLanguage
	}

	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return DefaultLanguage
	}

	scores := make(map[string]int, len(stopwordSets))
	total := 0
	for _, t := range tokens {
		for lang, set := range stopwordSets {
			if _, ok := set[t]; ok {
				scores[lang]++
				total++
			}
		}
	}
	if total == 0 {
		return DefaultLanguage
	}

	best := detectOrder[0]
	for _, lang := range detectOrder[1:] {
		if scores[lang] > scores[best] {
			best = lang
		}
	}
	return best
}
