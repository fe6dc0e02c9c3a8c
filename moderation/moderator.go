// Package moderation cleans persona output before delivery: model replies
// occasionally arrive wrapped in code fences, and operators can configure
// a blocklist of words that must never reach the chat.
package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

const maskChar = '*'

// Moderator masks blocked words and strips markdown code fences from
// generated text. It satisfies contract.Sanitizer.
type Moderator struct {
	matcher *goahocorasick.Machine
}

// NewModerator builds the Aho-Corasick automaton from the blocklist.
// An empty blocklist yields a fence-stripping-only moderator.
func NewModerator(blockedWords []string) (*Moderator, error) {
	m := &Moderator{}
	if len(blockedWords) == 0 {
		return m, nil
	}

	patterns := make([][]rune, 0, len(blockedWords))
	for _, word := range blockedWords {
		normalized := normalize(word)
		if len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}
	if len(patterns) == 0 {
		return m, nil
	}

	matcher := new(goahocorasick.Machine)
	if err := matcher.Build(patterns); err != nil {
		return nil, err
	}
	m.matcher = matcher
	return m, nil
}

func (m *Moderator) Sanitize(text string) string {
	return m.censor(stripCodeFences(text))
}

// censor masks every blocklist match in place, matching on a normalized
// view of the text but replacing the original characters.
func (m *Moderator) censor(original string) string {
	if m.matcher == nil {
		return original
	}

	origRunes := []rune(original)
	normalized := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		if isNoise(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = maskChar
		}
	}
	return string(origRunes)
}

// stripCodeFences unwraps a reply that is entirely enclosed in a markdown
// code fence, keeping fences that appear mid-text untouched.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}
	body := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	// Drop an optional language tag on the opening fence.
	if newline := strings.IndexByte(body, '\n'); newline != -1 && isLanguageTag(body[:newline]) {
		body = body[newline+1:]
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func normalize(word string) []rune {
	out := make([]rune, 0, len(word))
	for _, r := range word {
		if isNoise(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// isNoise identifies characters ignored during pattern matching, so a
// blocked word split by spacing or punctuation is still caught.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

// Nop is a pass-through sanitizer for tests and unmoderated deployments.
type Nop struct{}

func (Nop) Sanitize(text string) string { return text }
