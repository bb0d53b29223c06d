package auth

import (
	"slices"
)

// Principal is an authenticated identity together with the authority set it
// was granted at resolution time.
//
// A Principal is immutable after construction. Both the bearer and the session
// protocol produce the same Principal shape, so authorization never needs to
// know which protocol supplied it.
type Principal struct {
	subject     string
	authorities []string
}

// NewPrincipal builds a Principal for subject. Authority codes are kept
// verbatim, de-duplicated and sorted; empty codes are dropped.
func NewPrincipal(subject string, authorities []string) Principal {
	codes := make([]string, 0, len(authorities))
	for _, a := range authorities {
		if a != "" {
			codes = append(codes, a)
		}
	}
	slices.Sort(codes)
	return Principal{
		subject:     subject,
		authorities: slices.Compact(codes),
	}
}

// Subject returns the unique username this principal represents.
func (p Principal) Subject() string {
	return p.subject
}

// Authorities returns a copy of the granted role codes.
func (p Principal) Authorities() []string {
	return slices.Clone(p.authorities)
}

// HasAuthority reports whether code was granted. Comparison is exact.
func (p Principal) HasAuthority(code string) bool {
	_, found := slices.BinarySearch(p.authorities, code)
	return found
}

// HasAnyAuthority reports whether at least one of codes was granted.
func (p Principal) HasAnyAuthority(codes ...string) bool {
	for _, c := range codes {
		if p.HasAuthority(c) {
			return true
		}
	}
	return false
}

// IsZero reports whether p is the zero Principal.
func (p Principal) IsZero() bool {
	return p.subject == "" && len(p.authorities) == 0
}
