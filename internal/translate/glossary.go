package translate

import (
	"regexp"
	"strings"
)

// glossaryEntry is one fixed-terminology substitution.
// Entries are ordered longest-first so multi-word terms win over
// their sub-phrases ("neural network" before "network").
type glossaryEntry struct {
	term        string
	pattern     *regexp.Regexp
	replacement string
}

// Glossary maps English technical terms to their fixed Russian renderings.
// The same table backs both the provider prompt and the offline fallback.
var Glossary = map[string]string{
	"artificial intelligence": "искусственный интеллект",
	"machine learning":        "машинное обучение",
	"neural network":          "нейронная сеть",
	"digital transformation":  "цифровая трансформация",
	"automation":              "автоматизация",
	"chatbot":                 "чат-бот",
	"data analysis":           "анализ данных",
	"cloud computing":         "облачные вычисления",
	"big data":                "большие данные",
	"software development":    "разработка программного обеспечения",
	"business process":        "бизнес-процесс",
	"integration":             "интеграция",
	"consulting":              "консалтинг",
	"innovation":              "инновации",
	"efficiency":              "эффективность",
}

var glossaryEntries = buildGlossaryEntries()

func buildGlossaryEntries() []glossaryEntry {
	terms := make([]string, 0, len(Glossary))
	for term := range Glossary {
		terms = append(terms, term)
	}
	// Longest term first so "machine learning" is not split by shorter matches.
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			if len(terms[j]) > len(terms[i]) {
				terms[i], terms[j] = terms[j], terms[i]
			}
		}
	}

	entries := make([]glossaryEntry, 0, len(terms))
	for _, term := range terms {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		entries = append(entries, glossaryEntry{term: term, pattern: re, replacement: Glossary[term]})
	}
	return entries
}

// ApplyGlossary substitutes glossary terms whole-word, case-insensitively.
// The result is a partial translation; untranslated words pass through.
func ApplyGlossary(text string) string {
	for _, e := range glossaryEntries {
		text = e.pattern.ReplaceAllString(text, e.replacement)
	}
	return text
}

// GlossaryPromptBlock renders the glossary as prompt lines for the provider.
func GlossaryPromptBlock() string {
	var b strings.Builder
	for _, e := range glossaryEntries {
		b.WriteString("- ")
		b.WriteString(e.term)
		b.WriteString(" -> ")
		b.WriteString(e.replacement)
		b.WriteString("\n")
	}
	return b.String()
}
