// Package source adapts external collaborators to model types.
//
// Social reads newest-first subreddit listings, search results and comment
// trees. News runs keyword searches against an article search API. Both sit
// on a fetch.Client-like JSONGetter, so rate limiting, retry and the quota
// flag are handled below this package.
package source
