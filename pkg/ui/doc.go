// Package ui prints status lines, a detail progress bar and the analysis
// report tables.
package ui
