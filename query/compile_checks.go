package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/innovatetogether/go-innovate/core"
)

var (
	_ gocmd.Querier[ResolveProfileMessage, core.ResolutionResult]   = (*ResolveProfileQuery)(nil)
	_ gocmd.Querier[PreferenceStatusMessage, core.PreferenceStatus] = (*PreferenceStatusQuery)(nil)
)
