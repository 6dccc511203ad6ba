package interview

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/samber/lo"
)

const (
	maxKeywords        = 8
	topicsPerQuestion  = 3
	defaultTopicWindow = 5
	minKeywordLength   = 3
)

var stopwords = lo.SliceToMap([]string{
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are", "as",
	"at", "be", "because", "been", "before", "being", "below", "between", "both", "briefly", "but",
	"by", "can", "could", "describe", "did", "do", "does", "doing", "done", "down", "during", "each",
	"explain", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her", "here",
	"hers", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "just", "me", "more",
	"most", "my", "no", "nor", "not", "now", "of", "off", "on", "once", "one", "only", "or", "other",
	"our", "out", "over", "own", "please", "same", "she", "should", "so", "some", "such", "tell",
	"than", "that", "the", "their", "them", "then", "there", "these", "they", "this", "those",
	"through", "to", "too", "under", "until", "up", "use", "used", "using", "very", "walk", "was",
	"we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "you", "your", "yours",
}, func(w string) (string, struct{}) { return w, struct{}{} })

// Memory records the Q/A pairs of one session and derives topic keywords
// from them. It is not shared between sessions.
type Memory struct {
	mu    sync.Mutex
	pairs []QA
}

func NewMemory() *Memory {
	return &Memory{}
}

// AddQA records a pair. A second answer to the most recent question replaces
// the first instead of adding a pair.
func (m *Memory) AddQA(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := answer
	if n := len(m.pairs); n > 0 && m.pairs[n-1].Question == question {
		m.pairs[n-1].Answer = &a
		return
	}
	m.pairs = append(m.pairs, QA{Question: question, Answer: &a})
}

func (m *Memory) Pairs() []QA {
	m.mu.Lock()
	defer m.mu.Unlock()

	return cloneHistory(m.pairs)
}

// CoveredTopics returns keywords already discussed in recorded answers.
func (m *Memory) CoveredTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var topics []string
	for _, p := range m.pairs {
		if p.Answer != nil {
			topics = append(topics, ExtractKeywords(*p.Answer)...)
		}
	}
	return lo.Uniq(topics)
}

// symbolTerm reports names like c++ and f# whose trailing symbols carry the
// meaning; they are kept regardless of length.
func symbolTerm(tok string) bool {
	base := strings.TrimRight(tok, "+#")
	return base != tok && base != "" && !strings.ContainsAny(base, "+#")
}

// ExtractKeywords returns up to maxKeywords salient lowercase terms, ranked by
// frequency times length with ties broken by first occurrence.
func ExtractKeywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	type term struct {
		word  string
		count int
		first int
	}

	seen := make(map[string]*term)
	var terms []*term
	for i, tok := range tokens {
		tok = strings.TrimLeft(tok, "+#")
		if len([]rune(tok)) < minKeywordLength && !symbolTerm(tok) {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if t, ok := seen[tok]; ok {
			t.count++
			continue
		}
		t := &term{word: tok, count: 1, first: i}
		seen[tok] = t
		terms = append(terms, t)
	}

	sort.SliceStable(terms, func(i, j int) bool {
		si := terms[i].count * len(terms[i].word)
		sj := terms[j].count * len(terms[j].word)
		if si != sj {
			return si > sj
		}
		return terms[i].first < terms[j].first
	})

	if len(terms) > maxKeywords {
		terms = terms[:maxKeywords]
	}

	return lo.Map(terms, func(t *term, _ int) string { return t.word })
}

// RecentTopics unions the top keywords of the last window questions.
func RecentTopics(history []QA, window int) []string {
	if window <= 0 {
		return nil
	}

	start := len(history) - window
	if start < 0 {
		start = 0
	}

	var picks []string
	for _, entry := range history[start:] {
		if entry.Question == "" {
			continue
		}
		keywords := ExtractKeywords(entry.Question)
		if len(keywords) > topicsPerQuestion {
			keywords = keywords[:topicsPerQuestion]
		}
		picks = append(picks, keywords...)
	}

	return lo.Uniq(picks)
}

func cloneHistory(history []QA) []QA {
	out := make([]QA, len(history))
	for i, qa := range history {
		out[i].Question = qa.Question
		if qa.Answer != nil {
			a := *qa.Answer
			out[i].Answer = &a
		}
	}
	return out
}
