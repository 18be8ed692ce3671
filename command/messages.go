package command

import "strings"

const (
	TypeSetAbsoluteProfileURL   = "innovate.command.preference.absolute_url.set"
	TypeClearAbsoluteProfileURL = "innovate.command.preference.absolute_url.clear"
	TypeSetOverrideSubjectID    = "innovate.command.preference.override_subject.set"
	TypeClearOverrideSubjectID  = "innovate.command.preference.override_subject.clear"
	TypeSetProfileByID          = "innovate.command.preference.profile_id.set"
	TypeApplyDevDefaults        = "innovate.command.dev_defaults.apply"
)

// SetAbsoluteProfileURLMessage stores URL as given. Malformed values surface
// at resolution time.
type SetAbsoluteProfileURLMessage struct {
	URL string
}

func (SetAbsoluteProfileURLMessage) Type() string { return TypeSetAbsoluteProfileURL }

func (SetAbsoluteProfileURLMessage) Validate() error { return nil }

type ClearAbsoluteProfileURLMessage struct{}

func (ClearAbsoluteProfileURLMessage) Type() string { return TypeClearAbsoluteProfileURL }

func (ClearAbsoluteProfileURLMessage) Validate() error { return nil }

type SetOverrideSubjectIDMessage struct {
	SubjectID string
}

func (SetOverrideSubjectIDMessage) Type() string { return TypeSetOverrideSubjectID }

func (SetOverrideSubjectIDMessage) Validate() error { return nil }

type ClearOverrideSubjectIDMessage struct{}

func (ClearOverrideSubjectIDMessage) Type() string { return TypeClearOverrideSubjectID }

func (ClearOverrideSubjectIDMessage) Validate() error { return nil }

type SetProfileByIDMessage struct {
	ProfileID string
}

func (SetProfileByIDMessage) Type() string { return TypeSetProfileByID }

func (m SetProfileByIDMessage) Validate() error {
	if strings.TrimSpace(m.ProfileID) == "" {
		return invalidField("profile_id", "profile id is required")
	}
	return nil
}

type ApplyDevDefaultsMessage struct{}

func (ApplyDevDefaultsMessage) Type() string { return TypeApplyDevDefaults }

func (ApplyDevDefaultsMessage) Validate() error { return nil }
