package ingest

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// DefaultIgnoredTickers are upper-case words that look like tickers but
// almost never are.
var DefaultIgnoredTickers = []string{
	"USD", "GDP", "CEO", "IPO", "ETF", "SEC", "IRS", "FDA", "AI", "IT", "TV",
	"PC", "USA", "ON", "ALL", "FOR", "THE", "AND", "OR", "IS", "AT", "TO",
	"IN", "OF", "AS", "BE",
}

// marketKeywords must appear near a bare upper-case word for it to count.
var marketKeywords = []string{
	"STOCK", "SHARE", "TICKER", "SYMBOL", "BUY", "SELL", "HOLD", "TRADE",
	"PRICE", "MARKET", "INVEST", "PORTFOLIO", "POSITION", "CALL", "PUT",
	"OPTION", "DIVIDEND", "EARNINGS", "REVENUE", "EPS", "PE", "RATIO",
}

const (
	keywordRadius = 50

	maxNameWords   = 4  // Longest company-name phrase tried
	maxNameQueries = 32 // Name lookups per text
)

var (
	dollarPattern  = regexp.MustCompile(`(?i)\$([a-z]{1,5})\b`)
	beforePattern  = regexp.MustCompile(`\b(?i:buy|buying|sell|selling|hold|holding|trade|trading|stock|shares?|ticker|symbol|nyse|nasdaq)\s+([A-Z]{1,5})\b`)
	afterPattern   = regexp.MustCompile(`\b([A-Z]{2,5})\s+(?i:is|to|will|has|was|are|shares|stock|price|calls|puts)\b`)
	bracketPattern = regexp.MustCompile(`[(\[]([A-Z]{1,5})[)\]]`)
	labelPattern   = regexp.MustCompile(`(?i:ticker|symbol):\s*\$?([A-Z]{1,5})\b`)
	barePattern    = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	namePattern    = regexp.MustCompile(`\b[A-Z][A-Za-z0-9&-]*(?:[ \t]+[A-Z][A-Za-z0-9&-]*)*`)
)

// SymbolSet reports whether a symbol is a valid ticker.
type SymbolSet interface {
	Contains(symbol string) bool
}

// NameIndex resolves a company-name phrase such as "Advanced Micro Devices"
// to its symbol.
type NameIndex interface {
	Resolve(ctx context.Context, phrase string) (string, bool, error)
}

// Extractor finds ticker symbols mentioned in free text.
type Extractor struct {
	valid  SymbolSet
	ignore map[string]bool
	names  NameIndex
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithNameIndex makes the extractor also recognise company names.
func WithNameIndex(idx NameIndex) ExtractorOption {
	return func(e *Extractor) {
		e.names = idx
	}
}

// NewExtractor creates an extractor. A nil valid set accepts every
// candidate; a nil ignore list uses DefaultIgnoredTickers.
func NewExtractor(valid SymbolSet, ignore []string, opts ...ExtractorOption) *Extractor {
	if ignore == nil {
		ignore = DefaultIgnoredTickers
	}
	set := make(map[string]bool, len(ignore))
	for _, s := range ignore {
		set[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	e := &Extractor{valid: valid, ignore: set}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the sorted, unique tickers mentioned in text, by symbol
// or, with a name index, by company name.
func (e *Extractor) Extract(ctx context.Context, text string) []string {
	found := make(map[string]bool)
	accept := func(candidate string) {
		sym := strings.ToUpper(candidate)
		if found[sym] || e.ignore[sym] {
			return
		}
		if e.valid != nil && !e.valid.Contains(sym) {
			return
		}
		found[sym] = true
	}

	for _, re := range []*regexp.Regexp{dollarPattern, beforePattern, afterPattern, bracketPattern, labelPattern} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			accept(m[1])
		}
	}

	upper := strings.ToUpper(text)
	for _, loc := range barePattern.FindAllStringIndex(text, -1) {
		if nearKeyword(upper, loc[0], loc[1]) {
			accept(text[loc[0]:loc[1]])
		}
	}

	if e.names != nil {
		for _, phrase := range e.namePhrases(text) {
			sym, ok, err := e.names.Resolve(ctx, phrase)
			if err != nil {
				break
			}
			if ok {
				accept(sym)
			}
		}
	}

	out := make([]string, 0, len(found))
	for sym := range found {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// nearKeyword reports whether a market keyword occurs within keywordRadius
// bytes on either side of upper[start:end], excluding the word itself.
func nearKeyword(upper string, start, end int) bool {
	lo := max(0, start-keywordRadius)
	hi := min(len(upper), end+keywordRadius)
	around := upper[lo:start] + " " + upper[end:hi]
	for _, kw := range marketKeywords {
		if strings.Contains(around, kw) {
			return true
		}
	}
	return false
}

// namePhrases returns the capitalised word spans of text that could be a
// company name, shortest first within each run. All-caps single words are
// left to the symbol patterns.
func (e *Extractor) namePhrases(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, run := range namePattern.FindAllString(text, -1) {
		words := strings.Fields(run)
		for n := 1; n <= maxNameWords; n++ {
			for i := 0; i+n <= len(words); i++ {
				if n == 1 && (len(words[i]) < 3 || words[i] == strings.ToUpper(words[i]) || e.ignore[strings.ToUpper(words[i])]) {
					continue
				}
				phrase := strings.Join(words[i:i+n], " ")
				if seen[phrase] {
					continue
				}
				seen[phrase] = true
				out = append(out, phrase)
				if len(out) == maxNameQueries {
					return out
				}
			}
		}
	}
	return out
}
