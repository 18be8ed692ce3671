package query

const (
	TypeResolveProfile   = "innovate.query.profile.resolve"
	TypePreferenceStatus = "innovate.query.preference.status"
)

type ResolveProfileMessage struct{}

func (ResolveProfileMessage) Type() string { return TypeResolveProfile }

func (ResolveProfileMessage) Validate() error { return nil }

type PreferenceStatusMessage struct{}

func (PreferenceStatusMessage) Type() string { return TypePreferenceStatus }

func (PreferenceStatusMessage) Validate() error { return nil }
