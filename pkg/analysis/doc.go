// Package analysis holds the pure functions computed over the article and
// follower tables: activity tiers, profile completeness, engagement windows,
// the daily follower series and the advisory bot-likelihood flag.
//
// None of the functions mutate their inputs or perform I/O.
package analysis
