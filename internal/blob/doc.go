// Package blob stores window audio payloads on the filesystem under keys
// recorded in the catalog.
package blob
