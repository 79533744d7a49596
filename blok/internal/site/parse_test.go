package site

import (
	"strings"
	"testing"
)

const favoritesFragment = `
<ul>
  <li><a href="/biri/pena">pena</a></li>
  <li><a href="/biri/ssg">ssg</a></li>
  <li><a href="/biri/pena">pena again</a></li>
  <li><a href="/entry/1">not a profile</a></li>
  <li><a href="/biri/k%C4%B1rm%C4%B1z%C4%B1">kırmızı</a></li>
</ul>`

func TestParseFavoritesHTML(t *testing.T) {
	urls, err := ParseFavoritesHTML(strings.NewReader(favoritesFragment), "https://eksisozluk.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{
		"https://eksisozluk.com/biri/pena",
		"https://eksisozluk.com/biri/ssg",
		"https://eksisozluk.com/biri/k%C4%B1rm%C4%B1z%C4%B1",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls: got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d]: got %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestParseFavoritesHTMLEmpty(t *testing.T) {
	urls, err := ParseFavoritesHTML(strings.NewReader("<div>kimse yok</div>"), "https://x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("urls: got %v, want none", urls)
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name string
		html string
		id   int64
		ok   bool
	}{
		{
			name: "who input",
			html: `<form><input type="hidden" name="who" value="12345"></form>`,
			id:   12345,
			ok:   true,
		},
		{
			name: "data attribute fallback",
			html: `<div id="profile" data-userid="678"></div>`,
			id:   678,
			ok:   true,
		},
		{
			name: "input wins over attribute",
			html: `<input name="who" value="1"><div data-userid="2"></div>`,
			id:   1,
			ok:   true,
		},
		{
			name: "absent",
			html: `<div>hesap askıya alınmış</div>`,
			ok:   false,
		},
		{
			name: "non-numeric",
			html: `<input name="who" value="abc">`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseUserID(strings.NewReader(tt.html))
			if ok != tt.ok || id != tt.id {
				t.Errorf("got (%d, %v), want (%d, %v)", id, ok, tt.id, tt.ok)
			}
		})
	}
}

func TestUsernameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x/biri/foo", "foo"},
		{"https://x/biri/", ""}, // trailing slash: empty username is accepted
		{"foo", "foo"},
		{"https://x/biri/iki%20kelime", "iki%20kelime"},
	}
	for _, tt := range tests {
		if got := UsernameFromURL(tt.url); got != tt.want {
			t.Errorf("UsernameFromURL(%q): got %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFoldUsername(t *testing.T) {
	// WHAT: Turkish casing: dotted İ folds to i, dotless I folds to ı.
	tests := []struct {
		in   string
		want string
	}{
		{"PENA", "pena"},
		{"İsim", "isim"},
		{"IRMAK", "ırmak"},
	}
	for _, tt := range tests {
		if got := FoldUsername(tt.in); got != tt.want {
			t.Errorf("FoldUsername(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
