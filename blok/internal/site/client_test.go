package site

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFavoriteAuthors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entry/favorileyenler" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("entryId"); got != "777" {
			t.Errorf("entryId: got %q, want 777", got)
		}
		if got := r.Header.Get("Cookie"); got != "a=1" {
			t.Errorf("cookie: got %q, want a=1", got)
		}
		io.WriteString(w, `<li><a href="/biri/pena">pena</a></li><li><a href="/biri/ssg">ssg</a></li>`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Cookie: "a=1"})
	urls, err := c.FavoriteAuthors(context.Background(), "777")
	if err != nil {
		t.Fatalf("FavoriteAuthors: %v", err)
	}
	if len(urls) != 2 || urls[0] != srv.URL+"/biri/pena" {
		t.Errorf("urls: got %v", urls)
	}
}

func TestBlockPostsTypeCode(t *testing.T) {
	var gotPath, gotCode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotCode = r.URL.Query().Get("r")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	if err := c.Block(context.Background(), 42, Mute); err != nil {
		t.Fatalf("Block mute: %v", err)
	}
	if gotPath != "/userrelation/addrelation/42" || gotCode != "u" {
		t.Errorf("mute: got %s?r=%s", gotPath, gotCode)
	}

	if err := c.Block(context.Background(), 42, Block); err != nil {
		t.Fatalf("Block block: %v", err)
	}
	if gotCode != "m" {
		t.Errorf("block: got r=%s, want m", gotCode)
	}
}

func TestAddNoteFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/biri/pena/note" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("who"); got != "42" {
			t.Errorf("who: got %q, want 42", got)
		}
		if got := r.PostForm.Get("usernote"); got != "şu başlık için engellendi" {
			t.Errorf("usernote: got %q", got)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.AddNote(context.Background(), "pena", 42, "şu başlık için engellendi"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
}

func TestProfileUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<form><input name="who" value="99"></form>`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	id, err := c.ProfileUserID(context.Background(), srv.URL+"/biri/pena")
	if err != nil {
		t.Fatalf("ProfileUserID: %v", err)
	}
	if id != 99 {
		t.Errorf("id: got %d, want 99", id)
	}
}

func TestProfileUserIDAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<div>hesap yok</div>`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.ProfileUserID(context.Background(), srv.URL+"/biri/silinmis"); err == nil {
		t.Fatal("expected error for profile without user id")
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.Block(context.Background(), 1, Mute); err == nil {
		t.Fatal("expected error on 403")
	}
}
