package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/ingest"
	"github.com/rickgao/tickersense/internal/scheduler"
	"github.com/rickgao/tickersense/internal/writer"
)

const namespace = "tickersense"

// FetchStatser reports HTTP client counters.
type FetchStatser interface {
	Stats() fetch.Stats
}

// WriterStatser reports writer counters.
type WriterStatser interface {
	Stats() writer.WriterMetrics
}

// Sources are the components read at scrape time. Nil fields are skipped.
type Sources struct {
	Fetchers map[string]FetchStatser
	Writers  map[string]WriterStatser
	Social   interface{ Totals() ingest.SocialTotals }
	News     interface{ Totals() ingest.NewsTotals }
	Refresh  interface{ Totals() ingest.RefreshTotals }
	Jobs     interface{ States() []scheduler.JobState }
	Entities interface{ Len() int }
}

var (
	fetchRequestsDesc = prometheus.NewDesc(namespace+"_fetch_requests_total",
		"HTTP requests sent, including retries.", []string{"source"}, nil)
	fetchRetriesDesc = prometheus.NewDesc(namespace+"_fetch_retries_total",
		"HTTP requests retried after a transient failure.", []string{"source"}, nil)
	fetchFailuresDesc = prometheus.NewDesc(namespace+"_fetch_failures_total",
		"Fetches that failed after all attempts.", []string{"source"}, nil)
	fetchRateLimitedDesc = prometheus.NewDesc(namespace+"_fetch_rate_limited_total",
		"Responses signalling a rate limit or exhausted quota.", []string{"source"}, nil)
	fetchThrottleDesc = prometheus.NewDesc(namespace+"_fetch_throttle_seconds_total",
		"Time spent waiting on the local rate limiter.", []string{"source"}, nil)
	fetchInFlightDesc = prometheus.NewDesc(namespace+"_fetch_in_flight",
		"Requests currently in flight.", []string{"source"}, nil)

	itemsFetchedDesc = prometheus.NewDesc(namespace+"_items_fetched_total",
		"Items fetched from a source.", []string{"source"}, nil)
	itemsSavedDesc = prometheus.NewDesc(namespace+"_items_saved_total",
		"New items committed to the ledger.", []string{"source"}, nil)
	itemsDuplicateDesc = prometheus.NewDesc(namespace+"_items_duplicate_total",
		"Items skipped because their fingerprint was already stored.", []string{"source"}, nil)
	commentsDesc = prometheus.NewDesc(namespace+"_comments_stored_total",
		"Social comments handed to the comment writer.", nil, nil)
	backfillsDesc = prometheus.NewDesc(namespace+"_crawl_backfills_total",
		"Crawl cycles that ran in backfill mode.", nil, nil)
	newsPurgedDesc = prometheus.NewDesc(namespace+"_news_purged_total",
		"News items deleted by retention.", nil, nil)

	refreshRunsDesc = prometheus.NewDesc(namespace+"_refresh_runs_total",
		"Refresh runs completed.", nil, nil)
	refreshEntitiesDesc = prometheus.NewDesc(namespace+"_refresh_entities_total",
		"Entity refreshes by outcome.", []string{"outcome"}, nil)
	flaggedDesc = prometheus.NewDesc(namespace+"_anomaly_flagged_total",
		"Entity results flagged as likely manipulation.", nil, nil)
	trackedDesc = prometheus.NewDesc(namespace+"_tracked_entities",
		"Entities currently tracked.", nil, nil)

	jobRunsDesc = prometheus.NewDesc(namespace+"_job_runs_total",
		"Scheduled job runs.", []string{"job"}, nil)
	jobFailuresDesc = prometheus.NewDesc(namespace+"_job_failures_total",
		"Scheduled job runs that returned an error.", []string{"job"}, nil)
	jobSkipsDesc = prometheus.NewDesc(namespace+"_job_skips_total",
		"Due ticks skipped because the previous run was still going.", []string{"job"}, nil)
	jobRunningDesc = prometheus.NewDesc(namespace+"_job_running",
		"1 while a job run is in flight.", []string{"job"}, nil)
	jobLastRunDesc = prometheus.NewDesc(namespace+"_job_last_run_timestamp_seconds",
		"Start time of the latest run.", []string{"job"}, nil)

	writerInsertsDesc = prometheus.NewDesc(namespace+"_writer_inserts_total",
		"Rows inserted.", []string{"writer"}, nil)
	writerConflictsDesc = prometheus.NewDesc(namespace+"_writer_conflicts_total",
		"Rows skipped on conflict.", []string{"writer"}, nil)
	writerErrorsDesc = prometheus.NewDesc(namespace+"_writer_errors_total",
		"Failed writes.", []string{"writer"}, nil)
	writerFlushesDesc = prometheus.NewDesc(namespace+"_writer_flushes_total",
		"Successful flushes.", []string{"writer"}, nil)
)

// statsCollector reads counters from the live components on each scrape.
type statsCollector struct {
	src Sources
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		fetchRequestsDesc, fetchRetriesDesc, fetchFailuresDesc, fetchRateLimitedDesc,
		fetchThrottleDesc, fetchInFlightDesc,
		itemsFetchedDesc, itemsSavedDesc, itemsDuplicateDesc, commentsDesc, backfillsDesc, newsPurgedDesc,
		refreshRunsDesc, refreshEntitiesDesc, flaggedDesc, trackedDesc,
		jobRunsDesc, jobFailuresDesc, jobSkipsDesc, jobRunningDesc, jobLastRunDesc,
		writerInsertsDesc, writerConflictsDesc, writerErrorsDesc, writerFlushesDesc,
	} {
		ch <- d
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	for name, f := range c.src.Fetchers {
		s := f.Stats()
		counter(fetchRequestsDesc, float64(s.Requests), name)
		counter(fetchRetriesDesc, float64(s.Retries), name)
		counter(fetchFailuresDesc, float64(s.Failures), name)
		counter(fetchRateLimitedDesc, float64(s.RateLimited), name)
		counter(fetchThrottleDesc, s.ThrottleWait.Seconds(), name)
		gauge(fetchInFlightDesc, float64(s.InFlight), name)
	}

	if c.src.Social != nil {
		t := c.src.Social.Totals()
		counter(itemsFetchedDesc, float64(t.Fetched), "social")
		counter(itemsSavedDesc, float64(t.Saved), "social")
		counter(itemsDuplicateDesc, float64(t.Duplicates), "social")
		counter(commentsDesc, float64(t.Comments))
		counter(backfillsDesc, float64(t.Backfills))
	}
	if c.src.News != nil {
		t := c.src.News.Totals()
		counter(itemsFetchedDesc, float64(t.Fetched), "news")
		counter(itemsSavedDesc, float64(t.Saved), "news")
		counter(itemsDuplicateDesc, float64(t.Duplicates), "news")
		counter(newsPurgedDesc, float64(t.Purged))
	}
	if c.src.Refresh != nil {
		t := c.src.Refresh.Totals()
		counter(refreshRunsDesc, float64(t.Runs))
		counter(refreshEntitiesDesc, float64(t.Refreshed), "refreshed")
		counter(refreshEntitiesDesc, float64(t.Failed), "failed")
		counter(flaggedDesc, float64(t.Flagged))
	}
	if c.src.Entities != nil {
		gauge(trackedDesc, float64(c.src.Entities.Len()))
	}

	if c.src.Jobs != nil {
		for _, s := range c.src.Jobs.States() {
			counter(jobRunsDesc, float64(s.Runs), s.Name)
			counter(jobFailuresDesc, float64(s.Failures), s.Name)
			counter(jobSkipsDesc, float64(s.Skips), s.Name)
			running := 0.0
			if s.Running {
				running = 1
			}
			gauge(jobRunningDesc, running, s.Name)
			if !s.LastRun.IsZero() {
				gauge(jobLastRunDesc, float64(s.LastRun.Unix()), s.Name)
			}
		}
	}

	for name, w := range c.src.Writers {
		s := w.Stats()
		counter(writerInsertsDesc, float64(s.Inserts), name)
		counter(writerConflictsDesc, float64(s.Conflicts), name)
		counter(writerErrorsDesc, float64(s.Errors), name)
		counter(writerFlushesDesc, float64(s.Flushes), name)
	}
}
