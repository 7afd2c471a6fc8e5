// Package jidutil normalizes WhatsApp chat and participant identifiers
// across the addressing schemes the transport uses: the direct-routing user
// form (@s.whatsapp.net), the privacy-relay form (@lid) and groups (@g.us).
package jidutil

import "strings"

const (
	ServerUser  = "s.whatsapp.net"
	ServerLID   = "lid"
	ServerGroup = "g.us"
)

// ShortID returns the numeric prefix of a JID: everything before the "@",
// with any ":device" suffix stripped. Passing a bare number returns it as is.
func ShortID(jid string) string {
	id := jid
	if idx := strings.Index(id, "@"); idx >= 0 {
		id = id[:idx]
	}
	if idx := strings.Index(id, ":"); idx >= 0 {
		id = id[:idx]
	}
	return id
}

// IsGroup reports whether the JID addresses a group chat.
func IsGroup(jid string) bool {
	return strings.HasSuffix(jid, "@"+ServerGroup)
}

// IsAlternate reports whether the JID uses the privacy-relay form.
func IsAlternate(jid string) bool {
	return strings.HasSuffix(jid, "@"+ServerLID)
}

// ToDirect reconstructs the direct-routing form of a privacy-relay JID,
// keeping the numeric prefix. Any other JID is returned unchanged.
func ToDirect(jid string) string {
	if !IsAlternate(jid) {
		return jid
	}
	return ShortID(jid) + "@" + ServerUser
}

// CanonicalTarget turns a bare phone number into a sendable user JID.
// Strings that already carry a server suffix are returned unchanged.
func CanonicalTarget(s string) string {
	if strings.Contains(s, "@") {
		return s
	}
	return s + "@" + ServerUser
}
