// Package search provides in-conversation message search. Query terms are
// normalized and stopword-filtered, compiled into an Aho-Corasick automaton,
// and matched against message text; a message hits when every surviving term
// appears.
package search

import (
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"

	"github.com/temancurhat/gocurhat/pkg/state"
)

var englishStopwords = stopwords.MustGet("en")

// Matcher is a compiled query. Safe for concurrent use once built.
type Matcher struct {
	terms []string
	ac    *ahocorasick.Automaton
}

// canonicalize folds to lowercase and collapses non-alphanumeric runs into
// single spaces, applied identically to query terms and message text.
func canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	lastWasSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			out.WriteByte(' ')
			lastWasSpace = true
		}
	}
	return strings.TrimSpace(out.String())
}

// NewMatcher compiles a free-text query. Stopwords are dropped unless the
// whole query is stopwords, in which case the raw terms are kept so a query
// like "me" still finds something. An empty query yields a nil matcher.
func NewMatcher(query string) (*Matcher, error) {
	raw := strings.Fields(canonicalize(query))
	if len(raw) == 0 {
		return nil, nil
	}
	var terms []string
	for _, w := range raw {
		if !englishStopwords.Contains(w) {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		terms = raw
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(terms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &Matcher{terms: terms, ac: ac}, nil
}

// Terms returns the compiled query terms.
func (m *Matcher) Terms() []string {
	if m == nil {
		return nil
	}
	return m.terms
}

// MatchText reports whether every query term occurs in the text.
func (m *Matcher) MatchText(text string) bool {
	if m == nil {
		return true
	}
	haystack := []byte(canonicalize(text))
	seen := make(map[int]bool, len(m.terms))
	for _, hit := range m.ac.FindAllOverlapping(haystack) {
		seen[hit.PatternID] = true
	}
	return len(seen) == len(m.terms)
}

// FilterMessages returns the messages whose text matches the query, in
// their original order.
func (m *Matcher) FilterMessages(msgs []state.Message) []state.Message {
	if m == nil {
		return msgs
	}
	var out []state.Message
	for _, msg := range msgs {
		if m.MatchText(msg.Text) {
			out = append(out, msg)
		}
	}
	return out
}
