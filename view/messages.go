package view

import "github.com/innovatetogether/go-innovate/core"

const (
	MessageNoIdentifier          = "No authenticated user found. Please log in."
	MessageNetwork               = "Could not reach the profile service. Please try again."
	MessageAuth                  = "Your session could not be verified. Please log in again."
	MessageNotFound              = "User profile not found."
	MessagePreferenceUnavailable = "Local settings could not be read."
	MessageDefault               = "Failed to load user data"
)

// UserMessage returns the text shown for a failed resolution. Each error kind
// has its own message.
func UserMessage(err *core.ResolutionError) string {
	if err == nil {
		return ""
	}
	switch err.Kind {
	case core.ErrorKindNoIdentifierConfigured:
		return MessageNoIdentifier
	case core.ErrorKindNetwork:
		return MessageNetwork
	case core.ErrorKindAuth:
		return MessageAuth
	case core.ErrorKindNotFound:
		return MessageNotFound
	case core.ErrorKindPreferenceUnavailable:
		return MessagePreferenceUnavailable
	default:
		return MessageDefault
	}
}
