// Package pipeline runs one analysis: it resolves credentials, builds the
// API clients, loads the article and follower tables through the snapshot
// cache and summarizes them.
package pipeline
