package query

import (
	"context"

	"github.com/innovatetogether/go-innovate/core"
)

type ProfileReader interface {
	Resolve(ctx context.Context) core.ResolutionResult
}

type PreferenceStatusReader interface {
	PreferenceStatus(ctx context.Context) (core.PreferenceStatus, error)
}

type ResolveProfileQuery struct {
	reader ProfileReader
}

func NewResolveProfileQuery(reader ProfileReader) *ResolveProfileQuery {
	return &ResolveProfileQuery{reader: reader}
}

// Query returns resolution failures inside the result; the error return is
// reserved for wiring problems.
func (q *ResolveProfileQuery) Query(ctx context.Context, _ ResolveProfileMessage) (core.ResolutionResult, error) {
	if q == nil || q.reader == nil {
		return core.ResolutionResult{}, missingReader(TypeResolveProfile, "profile reader")
	}
	return q.reader.Resolve(ctx), nil
}

type PreferenceStatusQuery struct {
	reader PreferenceStatusReader
}

func NewPreferenceStatusQuery(reader PreferenceStatusReader) *PreferenceStatusQuery {
	return &PreferenceStatusQuery{reader: reader}
}

func (q *PreferenceStatusQuery) Query(ctx context.Context, _ PreferenceStatusMessage) (core.PreferenceStatus, error) {
	if q == nil || q.reader == nil {
		return core.PreferenceStatus{}, missingReader(TypePreferenceStatus, "preference status reader")
	}
	return q.reader.PreferenceStatus(ctx)
}
