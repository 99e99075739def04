package github

import (
	"errors"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

// Messages GitHub returns when an Advanced Security feature is not
// available on the queried target. Secret scanning and Dependabot report
// this as an API error rather than an empty alert list.
var featureDisabledMessages = []string{
	"secret scanning is not enabled",
	"secret scanning is disabled",
	"dependabot alerts are not enabled",
	"dependabot alerts are disabled",
}

// IsFeatureDisabled reports whether the error indicates the queried
// security feature is not enabled for the target, which callers treat as
// "skip this report" rather than a failure.
func IsFeatureDisabled(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, disabled := range featureDisabledMessages {
		if strings.Contains(msg, disabled) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether the error is a 404 API response.
func IsNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
