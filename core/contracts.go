package core

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Strategy names the identity source a resolution used.
type Strategy string

const (
	StrategyNone           Strategy = "none"
	StrategyAbsoluteURL    Strategy = "absolute_url"
	StrategyFixedID        Strategy = "fixed_id"
	StrategySessionSubject Strategy = "session_subject"
)

// Preference keys mirror the storage layout used by the web client.
const (
	PreferenceKeyAbsoluteProfileURL = "user_absolute_url"
	PreferenceKeyOverrideSubjectID  = "test_firebase_uid"
)

// PreferenceKeys lists every key the preference store is expected to hold.
func PreferenceKeys() []string {
	return []string{PreferenceKeyAbsoluteProfileURL, PreferenceKeyOverrideSubjectID}
}

// PreferenceRecord holds the two optional overrides. A nil field means the
// key is not configured.
type PreferenceRecord struct {
	AbsoluteProfileURL *string
	OverrideSubjectID  *string
}

func (r PreferenceRecord) HasAbsoluteProfileURL() bool {
	return r.AbsoluteProfileURL != nil
}

func (r PreferenceRecord) HasOverrideSubjectID() bool {
	return r.OverrideSubjectID != nil
}

// PreferenceStore is the durable key/value store behind the overrides.
// Get reports ok=false when the key is absent.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Clear(ctx context.Context, key string) error
}

// TokenSource produces short-lived bearer credentials for a session.
type TokenSource interface {
	BearerToken(ctx context.Context, forceRefresh bool) (string, error)
}

type Session struct {
	SubjectID string
	Tokens    TokenSource
}

// SessionProvider exposes the identity provider session. Subscribe invokes
// the callback with the current state and after every transition.
type SessionProvider interface {
	Current() (Session, bool)
	Subscribe(fn func(session Session, present bool)) (unsubscribe func())
}

type Achievement struct {
	Title string `json:"title"`
}

// Profile is the user entity returned by the remote profile API. Raw holds
// the response body exactly as received.
type Profile struct {
	ID                 string
	DisplayName        string
	Email              string
	Verified           bool
	Skills             []string
	Achievements       []Achievement
	ActiveChallenges   any
	SolutionsSubmitted any
	RewardsEarned      any
	AvgRating          any
	Attributes         map[string]any
	Raw                json.RawMessage
}

type ResolutionResult struct {
	Profile    *Profile
	Strategy   Strategy
	Err        *ResolutionError
	Attempts   int
	Generation uint64
}

func (r ResolutionResult) OK() bool {
	return r.Err == nil && r.Profile != nil
}

// ProfileResolver produces exactly one terminal outcome per call.
type ProfileResolver interface {
	Resolve(ctx context.Context, prefs PreferenceRecord, session *Session) ResolutionResult
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type PreferenceStatus struct {
	AbsoluteProfileURL string
	AbsoluteURLSet     bool
	OverrideSubjectID  string
	OverrideSubjectSet bool
	SessionPresent     bool
	SessionSubjectID   string
	DevMode            bool
	APIBaseURL         string
}

type DevDefaultsResult struct {
	Applied []string
	Skipped []string
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
