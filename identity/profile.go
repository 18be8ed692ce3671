package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/innovatetogether/go-innovate/core"
)

// DecodeProfile reads a profile document. Both a raw document and a
// {"success": ..., "data": {...}} envelope are accepted. A JSON null body,
// an envelope with success false, or one whose data is not an object yields
// a nil profile. Raw always holds body unchanged.
func DecodeProfile(body []byte) (*core.Profile, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("identity: profile response is empty")
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var document map[string]any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("identity: decode profile response: %w", err)
	}
	if document == nil {
		return nil, nil
	}
	if success, ok := document["success"].(bool); ok && !success {
		return nil, nil
	}
	if data, ok := document["data"]; ok {
		inner, isObject := data.(map[string]any)
		if !isObject {
			return nil, nil
		}
		document = inner
	}

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	return &core.Profile{
		ID:                 firstString(document, "_id", "id"),
		DisplayName:        firstString(document, "name", "displayName", "display_name"),
		Email:              readString(document["email"]),
		Verified:           readBool(document["is_verified"]),
		Skills:             readStrings(document["skills"]),
		Achievements:       readAchievements(document["achievements"]),
		ActiveChallenges:   document["active_challenges"],
		SolutionsSubmitted: document["solutions_submitted"],
		RewardsEarned:      document["rewards_earned"],
		AvgRating:          document["avg_rating"],
		Attributes:         document,
		Raw:                raw,
	}, nil
}

func firstString(document map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := readString(document[key]); value != "" {
			return value
		}
	}
	return ""
}

func readStrings(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := readString(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// readAchievements accepts both plain strings and {"title": ...} objects.
func readAchievements(value any) []core.Achievement {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]core.Achievement, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case string:
			out = append(out, core.Achievement{Title: strings.TrimSpace(typed)})
		case map[string]any:
			out = append(out, core.Achievement{Title: readString(typed["title"])})
		}
	}
	return out
}

func readString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readBool(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		return err == nil && parsed
	case json.Number:
		parsed, err := typed.Float64()
		return err == nil && parsed != 0
	default:
		return false
	}
}
