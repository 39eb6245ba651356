package utils

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from free-text user input.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}
