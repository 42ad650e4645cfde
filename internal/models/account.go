// Package models defines data structures for damoa
package models

import "strings"

// AccountType selects which brokerage endpoints an account is collected through.
type AccountType string

const (
	AccountTypeDomestic AccountType = "domestic"
	AccountTypePension  AccountType = "pension"
	AccountTypeOverseas AccountType = "overseas"
)

// Account holds the API credentials for one brokerage account.
// Accounts are built from configuration at startup and never mutated.
type Account struct {
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	AccountNo string      `json:"account_no"`
	AppKey    string      `json:"-"`
	AppSecret string      `json:"-"`
}

// CANO returns the account number prefix expected by the brokerage API.
func (a Account) CANO() string {
	if i := strings.Index(a.AccountNo, "-"); i >= 0 {
		return a.AccountNo[:i]
	}
	return a.AccountNo
}

// ProductCode returns the two-digit product suffix of the account number.
// Account numbers without a "-" separator default to "01".
func (a Account) ProductCode() string {
	if i := strings.Index(a.AccountNo, "-"); i >= 0 {
		return a.AccountNo[i+1:]
	}
	return "01"
}

// Overseas reports whether the account settles in a foreign currency.
func (a Account) Overseas() bool {
	return a.Type == AccountTypeOverseas
}
