package site

import (
	"strings"
	"time"
)

// DefaultNoteTemplate is the annotation attached to each processed user.
// Placeholders: {postTitle}, {actionType}, {entryLink}, {date}.
const DefaultNoteTemplate = `"{postTitle}" başlığındaki entry'yi favorilediği için {date} tarihinde {actionType}. {entryLink}`

// RenderNote fills a note template. The {actionType} substitution uses the
// fixed Turkish labels (Mute → "sessiz alındı", Block → "engellendi") and
// {date} the Turkish day.month.year convention.
func RenderNote(template, postTitle string, action Action, entryLink string, now time.Time) string {
	r := strings.NewReplacer(
		"{postTitle}", postTitle,
		"{actionType}", action.Label(),
		"{entryLink}", entryLink,
		"{date}", now.Format("02.01.2006"),
	)
	return r.Replace(template)
}
