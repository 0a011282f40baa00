// Package types defines the value types shared by the tally store and its
// callers: generic row records, typed domain records, table and event
// names, store configuration, and the standard error values.
package types
