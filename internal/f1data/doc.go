// Package f1data is the in-process data provider behind the tool registry.
// It serves Formula 1 season data from a dataset embedded at build time;
// seasons outside the dataset return errors, which is what hands a request
// over to the dispatch engine's fallback path.
package f1data
