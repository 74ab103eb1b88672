package universe

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"gopkg.in/yaml.v3"
)

// Listing is one tradable symbol.
type Listing struct {
	Symbol  string   `yaml:"symbol"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// listingDoc is the indexed form of a listing.
type listingDoc struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var corporateSuffix = regexp.MustCompile(`(?i)[,\s]+(inc|incorporated|corp|corporation|co|company|holdings|group|ltd|limited|plc|sa|nv|ag)\.?$`)

// Universe is the set of valid symbols with a name index.
type Universe struct {
	mu       sync.RWMutex
	listings map[string]Listing
	index    bleve.Index
}

// New builds a universe from listings. Duplicate symbols keep the last
// listing; symbols are upper-cased.
func New(listings []Listing) (*Universe, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create name index: %w", err)
	}
	u := &Universe{
		listings: make(map[string]Listing, len(listings)),
		index:    idx,
	}
	if err := u.Add(listings...); err != nil {
		idx.Close()
		return nil, err
	}
	return u, nil
}

// Load reads a YAML listing file and adds extra symbols.
func Load(path string, extra []string) (*Universe, error) {
	var listings []Listing
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read universe file: %w", err)
		}
		if err := yaml.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("parse universe file: %w", err)
		}
	}
	for _, s := range extra {
		listings = append(listings, Listing{Symbol: s})
	}
	return New(listings)
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	symbol := bleve.NewKeywordFieldMapping()
	symbol.Store = true
	doc.AddFieldMappingsAt("symbol", symbol)

	name := bleve.NewTextFieldMapping()
	name.Store = true
	doc.AddFieldMappingsAt("name", name)

	im.DefaultMapping = doc
	return im
}

// Add inserts or replaces listings.
func (u *Universe) Add(listings ...Listing) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	batch := u.index.NewBatch()
	for _, l := range listings {
		l.Symbol = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l.Symbol), "$")))
		if l.Symbol == "" {
			continue
		}
		l.Name = strings.TrimSpace(l.Name)
		u.listings[l.Symbol] = l
		if l.Name == "" {
			continue
		}
		if err := batch.Index(l.Symbol, listingDoc{Symbol: l.Symbol, Name: l.Name}); err != nil {
			return fmt.Errorf("index %s: %w", l.Symbol, err)
		}
	}
	if err := u.index.Batch(batch); err != nil {
		return fmt.Errorf("index listings: %w", err)
	}
	return nil
}

// Contains reports whether symbol is valid.
func (u *Universe) Contains(symbol string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.listings[strings.ToUpper(symbol)]
	return ok
}

// Symbols returns every valid symbol, sorted.
func (u *Universe) Symbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.listings))
	for s := range u.listings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of symbols.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.listings)
}

// Name returns the company name of a symbol.
func (u *Universe) Name(symbol string) string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.listings[strings.ToUpper(symbol)].Name
}

// Aliases returns extra search strings for a symbol: configured aliases and
// the company name without its corporate suffix.
func (u *Universe) Aliases(symbol string) []string {
	u.mu.RLock()
	l, ok := u.listings[strings.ToUpper(symbol)]
	u.mu.RUnlock()
	if !ok {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] || strings.EqualFold(s, l.Symbol) {
			return
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	for _, a := range l.Aliases {
		add(a)
	}
	add(ShortName(l.Name))
	return out
}

// Lookup returns symbols whose company name matches text, best first.
func (u *Universe) Lookup(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	mq := bleve.NewMatchQuery(text)
	mq.SetField("name")
	mq.SetOperator(query.MatchQueryOperatorAnd)
	req := bleve.NewSearchRequestOptions(mq, limit, 0, false)

	u.mu.RLock()
	res, err := u.index.SearchInContext(ctx, req)
	u.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search names: %w", err)
	}

	out := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, h.ID)
	}
	return out, nil
}

// resolveCandidates bounds the index hits checked by Resolve.
const resolveCandidates = 5

// Resolve returns the symbol whose company name is phrase, ignoring case,
// a leading "The" and corporate suffixes. Partial names do not resolve.
func (u *Universe) Resolve(ctx context.Context, phrase string) (string, bool, error) {
	want := normalizeName(phrase)
	if want == "" {
		return "", false, nil
	}
	hits, err := u.Lookup(ctx, phrase, resolveCandidates)
	if err != nil {
		return "", false, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, sym := range hits {
		if normalizeName(u.listings[sym].Name) == want {
			return sym, true, nil
		}
	}
	return "", false, nil
}

func normalizeName(name string) string {
	name = ShortName(name)
	if len(name) > 4 && strings.EqualFold(name[:4], "the ") {
		name = strings.TrimSpace(name[4:])
	}
	return strings.ToLower(name)
}

// Close releases the index.
func (u *Universe) Close() error {
	return u.index.Close()
}

// ShortName strips trailing corporate suffixes from a company name.
func ShortName(name string) string {
	name = strings.TrimSpace(name)
	for {
		short := corporateSuffix.ReplaceAllString(name, "")
		if short == name || short == "" {
			return name
		}
		name = strings.TrimSpace(short)
	}
}
