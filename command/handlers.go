package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/innovatetogether/go-innovate/core"
)

type PreferenceService interface {
	SetAbsoluteProfileURL(ctx context.Context, rawURL string) error
	ClearAbsoluteProfileURL(ctx context.Context) error
	SetOverrideSubjectID(ctx context.Context, subjectID string) error
	ClearOverrideSubjectID(ctx context.Context) error
	SetProfileByID(ctx context.Context, profileID string) (string, error)
}

type DevDefaultsService interface {
	ApplyDevDefaults(ctx context.Context) (core.DevDefaultsResult, error)
}

type SetAbsoluteProfileURLCommand struct {
	service PreferenceService
}

func NewSetAbsoluteProfileURLCommand(service PreferenceService) *SetAbsoluteProfileURLCommand {
	return &SetAbsoluteProfileURLCommand{service: service}
}

func (c *SetAbsoluteProfileURLCommand) Execute(ctx context.Context, msg SetAbsoluteProfileURLMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeSetAbsoluteProfileURL, "preference service")
	}
	return c.service.SetAbsoluteProfileURL(ctx, msg.URL)
}

type ClearAbsoluteProfileURLCommand struct {
	service PreferenceService
}

func NewClearAbsoluteProfileURLCommand(service PreferenceService) *ClearAbsoluteProfileURLCommand {
	return &ClearAbsoluteProfileURLCommand{service: service}
}

func (c *ClearAbsoluteProfileURLCommand) Execute(ctx context.Context, _ ClearAbsoluteProfileURLMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeClearAbsoluteProfileURL, "preference service")
	}
	return c.service.ClearAbsoluteProfileURL(ctx)
}

type SetOverrideSubjectIDCommand struct {
	service PreferenceService
}

func NewSetOverrideSubjectIDCommand(service PreferenceService) *SetOverrideSubjectIDCommand {
	return &SetOverrideSubjectIDCommand{service: service}
}

func (c *SetOverrideSubjectIDCommand) Execute(ctx context.Context, msg SetOverrideSubjectIDMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeSetOverrideSubjectID, "preference service")
	}
	return c.service.SetOverrideSubjectID(ctx, msg.SubjectID)
}

type ClearOverrideSubjectIDCommand struct {
	service PreferenceService
}

func NewClearOverrideSubjectIDCommand(service PreferenceService) *ClearOverrideSubjectIDCommand {
	return &ClearOverrideSubjectIDCommand{service: service}
}

func (c *ClearOverrideSubjectIDCommand) Execute(ctx context.Context, _ ClearOverrideSubjectIDMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeClearOverrideSubjectID, "preference service")
	}
	return c.service.ClearOverrideSubjectID(ctx)
}

// SetProfileByIDCommand stores the resulting absolute URL in the context
// result collector when one is attached.
type SetProfileByIDCommand struct {
	service PreferenceService
}

func NewSetProfileByIDCommand(service PreferenceService) *SetProfileByIDCommand {
	return &SetProfileByIDCommand{service: service}
}

func (c *SetProfileByIDCommand) Execute(ctx context.Context, msg SetProfileByIDMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeSetProfileByID, "preference service")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.SetProfileByID(ctx, msg.ProfileID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ApplyDevDefaultsCommand struct {
	service DevDefaultsService
}

func NewApplyDevDefaultsCommand(service DevDefaultsService) *ApplyDevDefaultsCommand {
	return &ApplyDevDefaultsCommand{service: service}
}

func (c *ApplyDevDefaultsCommand) Execute(ctx context.Context, _ ApplyDevDefaultsMessage) error {
	if c == nil || c.service == nil {
		return missingService(TypeApplyDevDefaults, "dev defaults service")
	}
	out, err := c.service.ApplyDevDefaults(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
