package site

import (
	"testing"
	"time"
)

func TestRenderNote(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{
			name:   "mute label",
			action: Mute,
			want:   `"pena" başlığındaki entry'yi favorilediği için 09.03.2024 tarihinde sessiz alındı. https://eksisozluk.com/entry/1`,
		},
		{
			name:   "block label",
			action: Block,
			want:   `"pena" başlığındaki entry'yi favorilediği için 09.03.2024 tarihinde engellendi. https://eksisozluk.com/entry/1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderNote(DefaultNoteTemplate, "pena", tt.action, "https://eksisozluk.com/entry/1", now)
			if got != tt.want {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRenderNoteCustomTemplate(t *testing.T) {
	got := RenderNote("{actionType} / {date} / {postTitle} / {entryLink}", "başlık", Block, "link", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	want := "engellendi / 01.12.2025 / başlık / link"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestActionCodes(t *testing.T) {
	// The one-letter codes are the site's wire contract.
	if Mute.Code() != "u" {
		t.Errorf("Mute.Code(): got %q, want %q", Mute.Code(), "u")
	}
	if Block.Code() != "m" {
		t.Errorf("Block.Code(): got %q, want %q", Block.Code(), "m")
	}
}
