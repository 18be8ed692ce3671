package innovate

import (
	"fmt"

	innovatecommand "github.com/innovatetogether/go-innovate/command"
	innovatequery "github.com/innovatetogether/go-innovate/query"
)

type CommandQueryService interface {
	innovatecommand.PreferenceService
	innovatecommand.DevDefaultsService
	innovatequery.ProfileReader
	innovatequery.PreferenceStatusReader
}

type Commands struct {
	SetAbsoluteProfileURL   *innovatecommand.SetAbsoluteProfileURLCommand
	ClearAbsoluteProfileURL *innovatecommand.ClearAbsoluteProfileURLCommand
	SetOverrideSubjectID    *innovatecommand.SetOverrideSubjectIDCommand
	ClearOverrideSubjectID  *innovatecommand.ClearOverrideSubjectIDCommand
	SetProfileByID          *innovatecommand.SetProfileByIDCommand
	ApplyDevDefaults        *innovatecommand.ApplyDevDefaultsCommand
}

type Queries struct {
	ResolveProfile   *innovatequery.ResolveProfileQuery
	PreferenceStatus *innovatequery.PreferenceStatusQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("innovate: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		SetAbsoluteProfileURL:   innovatecommand.NewSetAbsoluteProfileURLCommand(service),
		ClearAbsoluteProfileURL: innovatecommand.NewClearAbsoluteProfileURLCommand(service),
		SetOverrideSubjectID:    innovatecommand.NewSetOverrideSubjectIDCommand(service),
		ClearOverrideSubjectID:  innovatecommand.NewClearOverrideSubjectIDCommand(service),
		SetProfileByID:          innovatecommand.NewSetProfileByIDCommand(service),
		ApplyDevDefaults:        innovatecommand.NewApplyDevDefaultsCommand(service),
	}
	facade.queries = Queries{
		ResolveProfile:   innovatequery.NewResolveProfileQuery(service),
		PreferenceStatus: innovatequery.NewPreferenceStatusQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Service)(nil)
