// Package utils holds the small generic helpers shared across flapjack's
// packages: file readers that wrap errors in the catcher envelope, and
// pointer construction for optional fields.
package utils

// PointerOf returns a pointer to s. Useful for building pointers to
// literals when populating optional request/response fields.
func PointerOf[t any](s t) *t {
	return &s
}
