package debugs

import (
	"github.com/lashvm/lash/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
