package auth

import (
	"errors"
	"strings"
)

// ErrNotInvited is the stable rejection returned to uninvited signups.
var ErrNotInvited = errors.New("Signup is restricted to invited users. Please contact an administrator.")

// Allowlist accepts a proposed email if its domain appears in the domain
// list or the full address appears in the exact-address list. Both lists
// come from comma-separated configuration. Empty lists admit everyone.
type Allowlist struct {
	domains map[string]bool
	emails  map[string]bool
}

// NewAllowlist parses the comma-separated lists. A leading '@' on a domain
// entry is normalised away.
func NewAllowlist(domainList, emailList string) *Allowlist {
	a := &Allowlist{domains: make(map[string]bool), emails: make(map[string]bool)}
	for _, d := range strings.Split(domainList, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "@")
		if d != "" {
			a.domains[d] = true
		}
	}
	for _, e := range strings.Split(emailList, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			a.emails[e] = true
		}
	}
	return a
}

// Check returns ErrNotInvited unless the email is admitted.
func (a *Allowlist) Check(email string) error {
	if len(a.domains) == 0 && len(a.emails) == 0 {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if a.emails[email] {
		return nil
	}
	at := strings.LastIndex(email, "@")
	if at >= 0 && a.domains[email[at+1:]] {
		return nil
	}
	return ErrNotInvited
}
