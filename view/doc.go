// Package view holds the consumer side of profile resolution: a loader that
// keeps only the newest result, user-facing error messages and dashboard
// figures derived from a profile.
package view
