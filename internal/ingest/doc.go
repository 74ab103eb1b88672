// Package ingest runs the ingestion orchestrators.
//
// Three pipelines share the dedup ledger and the sentiment scorer:
//   - SocialCrawler walks configured subreddits newest-first, bounded by the
//     ledger cursor window, and commits every post that names a valid ticker
//   - NewsCrawler collects news articles for one entity and purges expired ones
//   - Refresher selects stale entities, gathers news, social posts and a quote
//     per entity, then aggregates, validates and scores them for manipulation
//
// Work fans out in fixed-size batches (RunBatches). Batches run one after the
// other with a short pause between them, and a failed task never aborts its
// batch.
package ingest
