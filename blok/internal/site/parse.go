package site

import (
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	selProfileLink = cascadia.MustCompile(`a[href^="/biri/"]`)
	selWhoInput    = cascadia.MustCompile(`input[name="who"]`)
	selUserIDAttr  = cascadia.MustCompile(`[data-userid]`)
)

// ParseFavoritesHTML extracts profile URLs from a favorites-list fragment.
// Links are returned in document order, deduplicated on the href, and made
// absolute against baseURL. Non-profile links are ignored.
func ParseFavoritesHTML(r io.Reader, baseURL string) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(baseURL, "/")
	seen := make(map[string]bool)
	var urls []string
	for _, n := range cascadia.QueryAll(doc, selProfileLink) {
		href := attr(n, "href")
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true
		urls = append(urls, base+href)
	}
	return urls, nil
}

// ParseUserID pulls the numeric account id out of a profile page. The id
// lives in the hidden "who" input of the note form, with a data-userid
// attribute as fallback for layout variants. Returns 0, false when no id is
// present (deleted or suspended accounts render without the form).
func ParseUserID(r io.Reader) (int64, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, false
	}

	if n := cascadia.Query(doc, selWhoInput); n != nil {
		if id, err := strconv.ParseInt(attr(n, "value"), 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	if n := cascadia.Query(doc, selUserIDAttr); n != nil {
		if id, err := strconv.ParseInt(attr(n, "data-userid"), 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
