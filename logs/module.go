// Package logs provides the structured logging ambient used by every
// component of minion. Logger construction fans a slog.Handler out to a
// terminal text handler and, when running under systemd, the journal.
package logs

import (
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
}
