package debugs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/minion/logs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
