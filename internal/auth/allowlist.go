package auth

import "strings"

// Allowlist is the set of admin identities permitted to hold a delegated
// credential and a session. Matching is exact after lowercasing; an empty
// allowlist denies everyone.
type Allowlist map[string]struct{}

// NewAllowlist builds an allowlist from configured emails.
func NewAllowlist(emails []string) Allowlist {
	set := make(Allowlist, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

// IsAllowed reports whether the identity is on the allowlist.
func (a Allowlist) IsAllowed(email string) bool {
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
