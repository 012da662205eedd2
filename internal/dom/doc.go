// Package dom holds the document helpers of the reload engine: the selector
// generator that fingerprints an element so it can be found again after a
// head/body replacement, element lookups, resource discovery for cache
// preloading, and the probe marker check.
//
// Functions operate on golang.org/x/net/html trees and never mutate them.
package dom
