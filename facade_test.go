package innovate

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	innovatecommand "github.com/innovatetogether/go-innovate/command"
	"github.com/innovatetogether/go-innovate/core"
	innovatequery "github.com/innovatetogether/go-innovate/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.SetAbsoluteProfileURL == nil || commands.ClearAbsoluteProfileURL == nil ||
		commands.SetOverrideSubjectID == nil || commands.ClearOverrideSubjectID == nil ||
		commands.SetProfileByID == nil || commands.ApplyDevDefaults == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.ResolveProfile == nil || queries.PreferenceStatus == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
	var facade *Facade
	if facade.Service() != nil {
		t.Fatalf("expected nil service from nil facade")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()

	if err := facade.Commands().SetAbsoluteProfileURL.Execute(ctx, innovatecommand.SetAbsoluteProfileURLMessage{
		URL: "http://host/api/users/abc123",
	}); err != nil {
		t.Fatalf("set absolute url: %v", err)
	}
	if svc.lastURL != "http://host/api/users/abc123" {
		t.Fatalf("unexpected url delegation: %q", svc.lastURL)
	}

	result := gocmd.NewResult[string]()
	if err := facade.Commands().SetProfileByID.Execute(gocmd.ContextWithResult(ctx, result), innovatecommand.SetProfileByIDMessage{
		ProfileID: "abc123",
	}); err != nil {
		t.Fatalf("set profile by id: %v", err)
	}
	if stored, _ := result.Load(); stored != "http://localhost:5000/api/users/abc123" {
		t.Fatalf("unexpected stored url result: %q", stored)
	}

	resolution, err := facade.Queries().ResolveProfile.Query(ctx, innovatequery.ResolveProfileMessage{})
	if err != nil {
		t.Fatalf("resolve query: %v", err)
	}
	if resolution.Strategy != core.StrategyAbsoluteURL || resolution.Profile == nil {
		t.Fatalf("unexpected resolution: %#v", resolution)
	}

	status, err := facade.Queries().PreferenceStatus.Query(ctx, innovatequery.PreferenceStatusMessage{})
	if err != nil {
		t.Fatalf("status query: %v", err)
	}
	if !status.AbsoluteURLSet || status.AbsoluteProfileURL != svc.lastURL {
		t.Fatalf("unexpected status: %#v", status)
	}
}

type stubFacadeService struct {
	lastURL     string
	lastSubject string
}

func (s *stubFacadeService) SetAbsoluteProfileURL(_ context.Context, rawURL string) error {
	s.lastURL = rawURL
	return nil
}

func (s *stubFacadeService) ClearAbsoluteProfileURL(context.Context) error {
	s.lastURL = ""
	return nil
}

func (s *stubFacadeService) SetOverrideSubjectID(_ context.Context, subjectID string) error {
	s.lastSubject = subjectID
	return nil
}

func (s *stubFacadeService) ClearOverrideSubjectID(context.Context) error {
	s.lastSubject = ""
	return nil
}

func (s *stubFacadeService) SetProfileByID(_ context.Context, profileID string) (string, error) {
	s.lastURL = core.DefaultConfig().API.UserURL(profileID)
	return s.lastURL, nil
}

func (s *stubFacadeService) ApplyDevDefaults(context.Context) (core.DevDefaultsResult, error) {
	return core.DevDefaultsResult{}, nil
}

func (s *stubFacadeService) Resolve(context.Context) core.ResolutionResult {
	return core.ResolutionResult{
		Profile:  &core.Profile{ID: "abc123"},
		Strategy: core.StrategyAbsoluteURL,
		Attempts: 1,
	}
}

func (s *stubFacadeService) PreferenceStatus(context.Context) (core.PreferenceStatus, error) {
	return core.PreferenceStatus{
		AbsoluteProfileURL: s.lastURL,
		AbsoluteURLSet:     s.lastURL != "",
		OverrideSubjectID:  s.lastSubject,
		OverrideSubjectSet: s.lastSubject != "",
	}, nil
}
