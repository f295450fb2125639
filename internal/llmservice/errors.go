package llmservice

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureAuth
	FailureRateLimit
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailureRateLimit:
		return "rate_limit"
	case FailureCanceled:
		return "canceled"
	default:
		return "other"
	}
}

var (
	authStatusRe = regexp.MustCompile(`\b(401|403)\b`)
	rateStatusRe = regexp.MustCompile(`\b429\b`)
)

// Classify inspects a provider error. langchaingo surfaces HTTP failures as plain errors
// ("API returned unexpected status code: 429: ..."), so this looks at status codes and
// well-known phrases in the message.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureOther
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureCanceled
	}
	msg := strings.ToLower(err.Error())
	switch {
	case rateStatusRe.MatchString(msg),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "quota"):
		return FailureRateLimit
	case authStatusRe.MatchString(msg),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "incorrect api key"),
		strings.Contains(msg, "invalid_api_key"),
		strings.Contains(msg, "missing the openai api key"),
		strings.Contains(msg, "authentication"):
		return FailureAuth
	}
	return FailureOther
}
