// Package sanitizer normalizes free-form identifiers before they are
// validated and stored.
//
// All functions are idempotent and never fail: input that cannot be salvaged
// becomes the empty string, which validation then rejects.
package sanitizer
