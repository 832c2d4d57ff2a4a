package nets

import (
	"github.com/reusee/dscope"
	"github.com/reusee/minion/configs"
	"github.com/reusee/minion/logs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}
