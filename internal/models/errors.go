package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used for flow control across services.
var (
	// ErrNoData signals an aggregation run that collected nothing; callers
	// must skip persistence rather than overwrite prior data.
	ErrNoData = errors.New("no holdings or cash collected")

	// ErrNoteExists rejects an add for an instrument code already on file.
	ErrNoteExists = errors.New("note already exists")

	// ErrNoteNotFound rejects an update or delete for an unknown code.
	ErrNoteNotFound = errors.New("note not found")
)

// ConfigError reports missing or invalid configuration. Fatal at startup.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration incomplete, missing: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("configuration invalid: %s", e.Reason)
}

// AuthError reports a failed token issuance for one account after all
// retries. Fatal for that account's collection only; other accounts proceed.
type AuthError struct {
	Account string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failed for account %s: %v", e.Account, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// CollectionError reports a failed holdings or cash endpoint call. Callers
// downgrade it to an empty result for the affected account.
type CollectionError struct {
	Account  string
	Endpoint string
	Code     string // provider result code, when one was returned
	Message  string
}

func (e *CollectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("collection failed for account %s at %s: [%s] %s", e.Account, e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("collection failed for account %s at %s: %s", e.Account, e.Endpoint, e.Message)
}

// ParseError reports one malformed row in a provider response. The row is
// dropped and logged; the rest of the response is kept.
type ParseError struct {
	Account string
	Code    string
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad %s in row %s (account %s): %v", e.Field, e.Code, e.Account, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RateProviderError reports one failed rate provider attempt. The resolver
// logs it and moves to the next provider; it never escapes the resolver.
type RateProviderError struct {
	Provider string
	Err      error
}

func (e *RateProviderError) Error() string {
	return fmt.Sprintf("rate provider %s: %v", e.Provider, e.Err)
}

func (e *RateProviderError) Unwrap() error { return e.Err }

// PersistenceError reports a failed tabular-store operation. Fatal for the
// run; persistence is never retried.
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
