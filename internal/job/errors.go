package job

import (
	"errors"
	"fmt"

	"github.com/Kim6922/senpai-ai/internal/audio"
	"github.com/Kim6922/senpai-ai/internal/generator"
)

// Kind classifies a job failure.
type Kind string

const (
	KindValidation           Kind = "ValidationError"
	KindConfiguration        Kind = "ConfigurationError"
	KindSubscriptionRequired Kind = "SubscriptionRequired"
	KindQuotaExceeded        Kind = "QuotaExceeded"
	KindRemote               Kind = "RemoteError"
	KindMissingResult        Kind = "MissingResult"
	KindDownloadFailed       Kind = "DownloadFailed"
	KindInvalidEncoding      Kind = "InvalidEncoding"
	KindTruncatedPCM         Kind = "TruncatedPCM"
)

// Messages shown to the user. QuotaMessage contains a hyperlink and is
// meant to be rendered verbatim.
const (
	ConfigurationMessage = "API Key is not configured. Please ensure it's set in your environment variables."
	SubscriptionMessage  = "To generate videos, movies, and high-quality images, please subscribe to one of our plans."
	QuotaMessage         = "You've exceeded your API quota. Please check your plan and billing details. For more information, visit the <a href='https://ai.google.dev/gemini-api/docs/rate-limits' target='_blank' rel='noopener noreferrer' class='underline text-purple-400 hover:text-purple-300'>API rate limits documentation</a>."
	BillingMessage       = "The image generation API is only accessible to billed users. Please check your account status."
)

// Error is the failure recorded on a job.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a ValidationError with a workflow-specific message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Configuration returns the error recorded when no credential is set.
func Configuration() *Error {
	return &Error{Kind: KindConfiguration, Message: ConfigurationMessage, Err: generator.ErrNotConfigured}
}

// SubscriptionRequired returns the error recorded when a gated workflow is
// submitted without an active subscription.
func SubscriptionRequired() *Error {
	return &Error{Kind: KindSubscriptionRequired, Message: SubscriptionMessage}
}

// IsKind reports whether err carries a job error of kind k.
func IsKind(err error, k Kind) bool {
	var jerr *Error
	return errors.As(err, &jerr) && jerr.Kind == k
}

// Classify maps an error from a dispatch strategy to a job Error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var jerr *Error
	if errors.As(err, &jerr) {
		return jerr
	}

	switch {
	case errors.Is(err, generator.ErrNotConfigured):
		return &Error{Kind: KindConfiguration, Message: ConfigurationMessage, Err: err}
	case errors.Is(err, generator.ErrQuotaExceeded):
		return &Error{Kind: KindQuotaExceeded, Message: QuotaMessage, Err: err}
	case errors.Is(err, generator.ErrBillingRequired):
		return &Error{Kind: KindRemote, Message: BillingMessage, Err: err}
	case errors.Is(err, generator.ErrMissingResult):
		return &Error{Kind: KindMissingResult, Message: describe(err), Err: err}
	case errors.Is(err, generator.ErrDownloadFailed):
		return &Error{Kind: KindDownloadFailed, Message: describe(err), Err: err}
	case errors.Is(err, audio.ErrInvalidEncoding):
		return &Error{Kind: KindInvalidEncoding, Message: describe(err), Err: err}
	case errors.Is(err, audio.ErrTruncatedPCM):
		return &Error{Kind: KindTruncatedPCM, Message: describe(err), Err: err}
	}
	return &Error{Kind: KindRemote, Message: describe(err), Err: err}
}

func describe(err error) string {
	return "An error occurred: " + err.Error()
}
