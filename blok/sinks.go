package blok

import (
	"io"

	"github.com/sozlukcu/eksiblok/blok/internal/notify"
)

// NewStdoutNotifier returns a JSON-lines progress sink. A nil writer means
// os.Stdout.
func NewStdoutNotifier(w io.Writer) Notifier {
	return notify.NewStdout(w)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc = notify.Func
