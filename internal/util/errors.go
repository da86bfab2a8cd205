package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrMalformedSubmission = errors.New("submission answers are malformed")
	ErrInvalidState        = errors.New("review is not in a valid state for this operation")
	ErrRenderFailure       = errors.New("report rendering failed")
	ErrUnknownQuestion     = errors.New("question does not belong to submission")
)

// ErrConcurrentFinalize 并发定稿中落败的一方收到此错误，errors.Is(err, ErrInvalidState) 为真
var ErrConcurrentFinalize = fmt.Errorf("%w: review was modified concurrently", ErrInvalidState)
