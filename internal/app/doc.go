// Package app wires configuration into the running pipeline: database,
// cache, sources, crawlers, the refresher and writers. Commands build an
// App and decide how to drive it.
package app
