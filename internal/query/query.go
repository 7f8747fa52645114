// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query parses the book search grammar shared by the catalog and
// the external providers:
//
//	isbn:9780143127741
//	author:"Ursula K. Le Guin" earthsea
//	category:fantasy OR category:"science fiction"
//	intitle:dune
//
// Unprefixed words form one free-text clause per alternative. A blank query
// or "*" matches everything.
package query

import "strings"

// Field names a clause of the grammar.
type Field string

const (
	ISBN     Field = "isbn"
	Author   Field = "author"
	Category Field = "category"
	Title    Field = "title"
	Text     Field = "text"
)

var prefixes = map[string]Field{
	"isbn":     ISBN,
	"author":   Author,
	"inauthor": Author,
	"category": Category,
	"subject":  Category,
	"intitle":  Title,
	"title":    Title,
}

// Clause is one field restriction.
type Clause struct {
	Field Field
	Value string
}

// Alternative is a set of clauses that must all match.
type Alternative []Clause

// IsWildcard reports whether q matches every book.
func IsWildcard(q string) bool {
	q = strings.TrimSpace(q)
	return q == "" || q == "*"
}

// Parse splits q into OR-separated alternatives. Prefixes with an empty
// value are dropped; unknown prefixes are kept as free text.
func Parse(q string) []Alternative {
	var (
		alts    []Alternative
		current Alternative
		free    []string
	)
	flush := func() {
		if len(free) > 0 {
			current = append(current, Clause{Field: Text, Value: strings.Join(free, " ")})
		}
		if len(current) > 0 {
			alts = append(alts, current)
		}
		current, free = nil, nil
	}

	for _, tok := range Tokenize(q) {
		if tok == "OR" {
			flush()
			continue
		}
		if name, value, ok := strings.Cut(tok, ":"); ok {
			if field, known := prefixes[strings.ToLower(name)]; known {
				value = strings.Trim(value, `"`)
				if strings.TrimSpace(value) != "" {
					current = append(current, Clause{Field: field, Value: value})
				}
				continue
			}
		}
		if t := strings.Trim(tok, `"`); t != "" {
			free = append(free, t)
		}
	}
	flush()
	return alts
}

// Tokenize splits on whitespace outside double quotes. Quotes are kept.
func Tokenize(q string) []string {
	var (
		tokens []string
		b      strings.Builder
		quoted bool
	)
	for _, r := range q {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n') && !quoted:
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// Render rebuilds a query string from alternatives, naming each field with
// names[field]. Clauses whose field has no name are rendered as bare text.
func Render(alts []Alternative, names map[Field]string) string {
	parts := make([]string, 0, len(alts))
	for _, alt := range alts {
		terms := make([]string, 0, len(alt))
		for _, c := range alt {
			name, ok := names[c.Field]
			switch {
			case !ok || name == "":
				terms = append(terms, c.Value)
			default:
				terms = append(terms, name+":"+Quote(c.Value))
			}
		}
		parts = append(parts, strings.Join(terms, " "))
	}
	return strings.Join(parts, " OR ")
}

// Quote wraps v in double quotes when it contains whitespace.
func Quote(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + strings.ReplaceAll(v, `"`, "") + `"`
	}
	return v
}
