package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorMutationRejected means a caller-side policy gate refused the
// mutation before it reached the store. No partial effect.
var ErrorMutationRejected = errors.New("destructive actions are disabled")
