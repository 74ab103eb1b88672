package ingest

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/tickersense/internal/anomaly"
	"github.com/rickgao/tickersense/internal/cache"
	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
	"github.com/rickgao/tickersense/internal/quote"
	"github.com/rickgao/tickersense/internal/sentiment"
)

type fakeEntities struct {
	mu     sync.Mutex
	stale  []model.TrackedEntity
	marked map[string]time.Time
}

func (f *fakeEntities) Stale(time.Duration, int) []model.TrackedEntity { return f.stale }

func (f *fakeEntities) MarkRefreshed(symbol string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[symbol] = t
}

type staticCollector map[string]fetch.Result[[]model.Item]

func (c staticCollector) Collect(_ context.Context, e model.TrackedEntity) fetch.Result[[]model.Item] {
	if r, ok := c[e.Symbol]; ok {
		return r
	}
	return fetch.NoData[[]model.Item]()
}

type staticQuotes map[string]model.Quote

func (q staticQuotes) Quote(_ context.Context, symbol string) (model.Quote, error) {
	if v, ok := q[symbol]; ok {
		return v, nil
	}
	return model.Quote{}, quote.ErrNotFound
}

type resultRecorder struct {
	mu      sync.Mutex
	results map[string]EntityResult
}

func (r *resultRecorder) WriteResult(_ context.Context, res EntityResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.Symbol] = res
	return nil
}

// clientCollector issues one search per entity through a shared client. The
// first call also runs onFirst, standing in for another orchestrator.
type clientCollector struct {
	client  *fetch.Client
	once    sync.Once
	onFirst func()
}

func (c *clientCollector) Collect(ctx context.Context, _ model.TrackedEntity) fetch.Result[[]model.Item] {
	_, err := c.client.Do(ctx, fetch.Request{Path: "/search"})
	c.once.Do(c.onFirst)
	if err != nil {
		return fetch.Failed[[]model.Item](err)
	}
	return fetch.NoData[[]model.Item]()
}

func scoredItem(src model.Source, id string, compound float64, age time.Duration) model.Item {
	return model.Item{
		RawItem: model.RawItem{
			Source:    src,
			OriginID:  id,
			Title:     id,
			Publisher: "Reuters",
			Score:     20,
			CreatedAt: testNow.Add(-age),
		},
		Fingerprint: id,
		Sentiment:   model.SentimentScore{Compound: compound, Label: model.LabelFor(compound)},
	}
}

type refreshFixture struct {
	refresher *Refresher
	entities  *fakeEntities
	sink      *resultRecorder
}

func newRefreshFixture(news, social staticCollector, quotes staticQuotes, stale ...string) refreshFixture {
	clk := clock.NewManual(testNow)
	entities := &fakeEntities{marked: make(map[string]time.Time)}
	for _, s := range stale {
		entities.stale = append(entities.stale, model.TrackedEntity{Symbol: s})
	}
	sink := &resultRecorder{results: make(map[string]EntityResult)}

	cfg := DefaultRefreshConfig()
	cfg.Batch.Pause = 0
	cfg.MaxArticles = 2

	deps := RefreshDeps{
		Entities:   entities,
		News:       news,
		Social:     social,
		Quotes:     quotes,
		History:    cache.NewMemory(clk),
		Aggregator: testAggregator(),
		Weights:    sentiment.DefaultSourceWeights(),
		Detector:   anomaly.NewDetector(anomaly.DefaultThresholds(), anomaly.DefaultVocabulary()),
		Sink:       sink,
	}
	return refreshFixture{
		refresher: NewRefresher(cfg, deps, clk, nil),
		entities:  entities,
		sink:      sink,
	}
}

func TestRefresher_RunRefreshesStaleEntities(t *testing.T) {
	news := staticCollector{
		"AAPL": fetch.Ok([]model.Item{
			scoredItem(model.SourceNews, "a1", 1.2, time.Hour),
			scoredItem(model.SourceNews, "a2", 0.8, 2*time.Hour),
			scoredItem(model.SourceNews, "a3", 0.4, 3*time.Hour),
		}),
		"TSLA": fetch.Ok([]model.Item{scoredItem(model.SourceNews, "t1", -1.0, time.Hour)}),
	}
	social := staticCollector{
		"AAPL": fetch.Ok([]model.Item{scoredItem(model.SourceReddit, "r1", 2.0, 30*time.Minute)}),
	}
	quotes := staticQuotes{
		"AAPL": {Symbol: "AAPL", Price: 190, PreviousClose: 185, ChangePercent: 2.7, Volume: 60_000_000, AverageVolume: 50_000_000, Bid: 189.9, Ask: 190.1},
	}
	f := newRefreshFixture(news, social, quotes, "AAPL", "TSLA")

	stats, err := f.refresher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Selected != 2 || stats.Refreshed != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 selected, 2 refreshed", stats)
	}
	if stats.RunID == "" {
		t.Error("RunID is empty")
	}

	for _, sym := range []string{"AAPL", "TSLA"} {
		if got := f.entities.marked[sym]; !got.Equal(testNow) {
			t.Errorf("MarkRefreshed(%s) = %v, want %v", sym, got, testNow)
		}
	}

	aapl := f.sink.results["AAPL"]
	if aapl.RunID != stats.RunID {
		t.Errorf("RunID = %q, want %q", aapl.RunID, stats.RunID)
	}
	if aapl.News.Count != 3 {
		t.Errorf("News.Count = %d, want 3", aapl.News.Count)
	}
	if len(aapl.News.Items) != 2 {
		t.Errorf("len(News.Items) = %d, want 2", len(aapl.News.Items))
	}
	if aapl.Social.Count != 1 || aapl.Social.Sentiment == nil {
		t.Errorf("Social = %+v, want one scored post", aapl.Social)
	}
	if !aapl.Overall.Available || aapl.Overall.Label != model.LabelPositive {
		t.Errorf("Overall = %+v, want available positive", aapl.Overall)
	}
	if aapl.Overall.Validation == nil {
		t.Error("Validation = nil, want summary with quote present")
	}
	if aapl.StockInfo == nil || aapl.StockInfo.Price != 190 {
		t.Errorf("StockInfo = %+v, want AAPL quote", aapl.StockInfo)
	}

	tsla := f.sink.results["TSLA"]
	if tsla.Overall.Validation != nil {
		t.Error("TSLA Validation set without a quote")
	}
	if tsla.Overall.Label != model.LabelNegative {
		t.Errorf("TSLA Label = %v, want %v", tsla.Overall.Label, model.LabelNegative)
	}
	if tsla.Social.Status != fetch.StatusNoData.String() {
		t.Errorf("TSLA Social.Status = %q, want %q", tsla.Social.Status, fetch.StatusNoData.String())
	}
}

func TestRefresher_AllSourcesFailed(t *testing.T) {
	down := fetch.Failed[[]model.Item](errors.New("down"))
	f := newRefreshFixture(
		staticCollector{"AAPL": down},
		staticCollector{"AAPL": down},
		staticQuotes{},
		"AAPL",
	)

	_, err := f.refresher.RefreshEntity(context.Background(), model.TrackedEntity{Symbol: "AAPL"}, "run")
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("err = %v, want ErrNoSources", err)
	}

	stats, err := f.refresher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 || stats.Refreshed != 0 {
		t.Errorf("stats = %+v, want 1 failed", stats)
	}
	if _, ok := f.entities.marked["AAPL"]; ok {
		t.Error("failed entity was marked refreshed")
	}
	if len(f.sink.results) != 0 {
		t.Errorf("results written = %d, want 0", len(f.sink.results))
	}
}

func TestRefresher_RepeatedRefreshIsStable(t *testing.T) {
	news := staticCollector{"AAPL": fetch.Ok([]model.Item{
		scoredItem(model.SourceNews, "a1", 0.6, time.Hour),
		scoredItem(model.SourceNews, "a2", -0.2, 5*time.Hour),
	})}
	f := newRefreshFixture(news, staticCollector{}, staticQuotes{}, "AAPL")
	e := model.TrackedEntity{Symbol: "AAPL"}

	first, err := f.refresher.RefreshEntity(context.Background(), e, "run-1")
	if err != nil {
		t.Fatalf("RefreshEntity: %v", err)
	}
	second, err := f.refresher.RefreshEntity(context.Background(), e, "run-2")
	if err != nil {
		t.Fatalf("RefreshEntity: %v", err)
	}

	if first.News.Sentiment.Compound != second.News.Sentiment.Compound {
		t.Errorf("news compound changed: %v then %v", first.News.Sentiment.Compound, second.News.Sentiment.Compound)
	}
	if first.Overall.Compound != second.Overall.Compound {
		t.Errorf("overall compound changed: %v then %v", first.Overall.Compound, second.Overall.Compound)
	}
	if second.Overall.Velocity != 0 {
		t.Errorf("Velocity = %v, want 0 for unchanged input", second.Overall.Velocity)
	}
}

func TestRefresher_AdjustSocialDampsLowTrust(t *testing.T) {
	f := newRefreshFixture(staticCollector{}, staticCollector{}, staticQuotes{})
	items := []model.Item{scoredItem(model.SourceReddit, "r1", 2.0, time.Minute)}

	low := f.refresher.adjustSocial(items, 20)
	if got := low[0].Sentiment.Compound; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("compound at trust 20 = %v, want 0.4", got)
	}
	if items[0].Sentiment.Compound != 2.0 {
		t.Error("adjustSocial mutated its input")
	}

	high := f.refresher.adjustSocial(items, 80)
	if got := high[0].Sentiment.Compound; got != 2.0 {
		t.Errorf("compound at trust 80 = %v, want 2.0", got)
	}
}

func TestRefresher_QuotaStaysSuspendedWhenAnotherRunStarts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := fetch.NewClient("reddit", server.URL, fetch.WithRetries(1, time.Millisecond, time.Millisecond))
	social := &clientCollector{client: client}
	social.onFirst = func() {
		client.Do(fetch.StartCycle(context.Background()), fetch.Request{Path: "/r/stocks/new"})
	}

	f := newRefreshFixture(staticCollector{}, staticCollector{}, staticQuotes{}, "AAPL", "MSFT", "TSLA")
	f.refresher.deps.Social = social
	f.refresher.cfg.Batch = BatchConfig{Size: 1, Concurrency: 1}

	if _, err := f.refresher.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// One refresh call trips the quota, one crawl call runs in its own cycle,
	// the remaining refresh calls short-circuit.
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}
