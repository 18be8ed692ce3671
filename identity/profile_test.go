package identity

import (
	"encoding/json"
	"testing"
)

func TestDecodeProfile_UnwrapsEnvelopeAndKeepsRaw(t *testing.T) {
	body := []byte(`{"success":true,"data":{"_id":"u1","name":"Ada","email":"ada@example.com","is_verified":true,"skills":["go","sql"],"achievements":["first",{"title":"second"}],"active_challenges":3,"avg_rating":"4.5"}}`)
	profile, err := DecodeProfile(body)
	if err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ID != "u1" || profile.DisplayName != "Ada" || !profile.Verified {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(profile.Skills) != 2 || profile.Skills[1] != "sql" {
		t.Fatalf("unexpected skills %v", profile.Skills)
	}
	if len(profile.Achievements) != 2 || profile.Achievements[1].Title != "second" {
		t.Fatalf("unexpected achievements %v", profile.Achievements)
	}
	if profile.ActiveChallenges != json.Number("3") {
		t.Fatalf("expected numeric active challenges, got %#v", profile.ActiveChallenges)
	}
	if profile.AvgRating != "4.5" {
		t.Fatalf("expected avg rating kept as sent, got %#v", profile.AvgRating)
	}
	if string(profile.Raw) != string(body) {
		t.Fatalf("expected raw body unchanged")
	}
}

func TestDecodeProfile_RejectsNonObject(t *testing.T) {
	if _, err := DecodeProfile([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected decode error for array body")
	}
	if _, err := DecodeProfile(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestDecodeProfile_NullIsAbsent(t *testing.T) {
	profile, err := DecodeProfile([]byte(" null "))
	if err != nil || profile != nil {
		t.Fatalf("expected nil profile without error, got %+v %v", profile, err)
	}
}

func TestDecodeProfile_EnvelopeWithoutProfileIsAbsent(t *testing.T) {
	bodies := []string{
		`{"success":false,"data":null,"message":"User not found"}`,
		`{"success":false,"data":{"name":"Ada"}}`,
		`{"success":true,"data":null}`,
		`{"success":true,"data":[{"name":"Alice"},{"name":"Bob"}]}`,
		`{"data":"ada"}`,
	}
	for _, body := range bodies {
		profile, err := DecodeProfile([]byte(body))
		if err != nil || profile != nil {
			t.Fatalf("expected nil profile for %s, got %+v %v", body, profile, err)
		}
	}
}

func TestDecodeProfile_EnvelopeWithoutSuccessFlag(t *testing.T) {
	profile, err := DecodeProfile([]byte(`{"data":{"_id":"u2","displayName":"Grace"}}`))
	if err != nil || profile == nil {
		t.Fatalf("expected profile, got %+v %v", profile, err)
	}
	if profile.ID != "u2" || profile.DisplayName != "Grace" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
