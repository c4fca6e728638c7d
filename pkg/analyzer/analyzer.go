// Package analyzer wraps the kagome tokenizer: readings for new words and
// token streams for article import.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/wordbook/pkg/vocab"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // The pronunciation (katakana, e.g. "イッ")
	PartsOfSpeech []string // e.g. ["動詞", "自立", "*", "*"] (Kagome POS labels)
	// PrimaryPOS stores the first (primary) part of speech if available.
	PrimaryPOS string
}

func (t Token) subPOS() string {
	if len(t.PartsOfSpeech) > 1 {
		return t.PartsOfSpeech[1]
	}
	return ""
}

// IsContentWord reports whether t is a noun, verb or adjective worth
// keeping as vocabulary. Numbers, pronouns, suffixes and dependent forms
// are skipped.
func (t Token) IsContentWord() bool {
	switch t.PrimaryPOS {
	case "名詞":
		switch t.subPOS() {
		case "数", "代名詞", "非自立", "接尾", "特殊":
			return false
		}
		return true
	case "動詞", "形容詞":
		return t.subPOS() == "自立"
	}
	return false
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer handles text segmentation. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) ([]Token, error) {
	tokens := a.t.Tokenize(text)
	var result []Token

	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0-3 POS levels, 4-5 conjugation, 6 base form,
		// 7 reading, 8 pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}

	return result, nil
}

// Reading returns the hiragana reading of word, or "" when some part of it
// has no known reading.
func (a *Analyzer) Reading(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	tokens, err := a.Analyze(word)
	if err != nil || len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		switch {
		case tok.Reading != "":
			b.WriteString(tok.Reading)
		case !vocab.HasKanji(tok.Surface):
			b.WriteString(tok.Surface)
		default:
			return ""
		}
	}
	return vocab.ToHiragana(b.String())
}

// LemmaReading returns the hiragana reading of a token's dictionary form.
// Inflected tokens carry the reading of the surface, so the base form is
// looked up again.
func (a *Analyzer) LemmaReading(t Token) string {
	if t.BaseForm == t.Surface && t.Reading != "" {
		return vocab.ToHiragana(t.Reading)
	}
	return a.Reading(t.BaseForm)
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) AnalyzeDocument(text string) ([]Sentence, error) {
	var result []Sentence
	for _, s := range SplitSentences(text) {
		tokens, err := a.Analyze(s)
		if err != nil {
			return nil, err
		}
		result = append(result, Sentence{
			Text:   s,
			Tokens: tokens,
		})
	}
	return result, nil
}

// SplitSentences splits text after 。！？ and newlines, dropping blank
// pieces.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			flush()
		}
	}
	flush()
	return sentences
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana inline, so "漢字" would come
// out as "漢字かんじ" otherwise.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
