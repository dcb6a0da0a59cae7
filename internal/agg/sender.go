package agg

import (
	"net/mail"
	"strings"
)

// SenderIdentity is the parsed identity behind a From header.
type SenderIdentity struct {
	Name   string
	Email  string
	Domain string
}

// ExtractSenderInfo parses a raw From header into display name, normalized
// (lower-cased) email address, and domain. Malformed headers degrade to
// empty fields rather than failing: a missing From header yields an empty
// identity, which aggregates under the empty-string sender key.
func ExtractSenderInfo(fromHeader string) SenderIdentity {
	raw := strings.TrimSpace(fromHeader)

	var name, email string
	if addr, err := mail.ParseAddress(raw); err == nil {
		name = addr.Name
		email = strings.ToLower(addr.Address)
	} else if raw != "" && !strings.ContainsAny(raw, " <>") {
		// Bare addr-spec that the strict parser rejected (e.g. no domain
		// literal). Treat the whole token as the address.
		email = strings.ToLower(raw)
	}

	domain := ""
	if at := strings.Index(email, "@"); at >= 0 {
		domain = email[at+1:]
	}

	if name == "" {
		if at := strings.Index(email, "@"); at >= 0 {
			name = email[:at]
		} else {
			name = email
		}
	}

	return SenderIdentity{Name: name, Email: email, Domain: domain}
}
