// Package pipeline streams event chunks from a Source through a Matcher
// and accumulates the coincidence rows into one table.
//
// The only contract to implement is Matcher (MatchRange).
// This keeps the pipeline swappable and testable.
package pipeline
