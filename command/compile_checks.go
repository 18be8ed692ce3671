package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SetAbsoluteProfileURLMessage]   = (*SetAbsoluteProfileURLCommand)(nil)
	_ gocmd.Commander[ClearAbsoluteProfileURLMessage] = (*ClearAbsoluteProfileURLCommand)(nil)
	_ gocmd.Commander[SetOverrideSubjectIDMessage]    = (*SetOverrideSubjectIDCommand)(nil)
	_ gocmd.Commander[ClearOverrideSubjectIDMessage]  = (*ClearOverrideSubjectIDCommand)(nil)
	_ gocmd.Commander[SetProfileByIDMessage]          = (*SetProfileByIDCommand)(nil)
	_ gocmd.Commander[ApplyDevDefaultsMessage]        = (*ApplyDevDefaultsCommand)(nil)
)
