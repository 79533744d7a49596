// Package site is the Ekşi Sözlük HTTP client: favorites listing, profile
// lookup, block/mute relations, and user notes. All calls ride the caller's
// existing session cookie; the package performs no login of its own.
package site

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action is the relation applied to a user.
type Action string

const (
	// Mute silences the user without a visible block ("sessiz alma").
	Mute Action = "mute"
	// Block fully blocks the user.
	Block Action = "block"
)

// Code returns the one-letter type code the relation endpoint expects.
// These codes are the site's wire contract and must not change.
func (a Action) Code() string {
	if a == Block {
		return "m"
	}
	return "u"
}

// Label returns the Turkish past-tense label used in notifications and notes.
func (a Action) Label() string {
	if a == Block {
		return "engellendi"
	}
	return "sessiz alındı"
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == Mute || a == Block
}

var turkishLower = cases.Lower(language.Turkish)

// UsernameFromURL extracts the username from a profile URL: everything after
// the final slash. A trailing slash yields the empty string; no character-set
// validation is performed.
func UsernameFromURL(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// FoldUsername lowercases a username under Turkish casing rules. The site
// treats usernames case-insensitively with Turkish collation, so processed-set
// keys go through this fold.
func FoldUsername(name string) string {
	return turkishLower.String(name)
}
