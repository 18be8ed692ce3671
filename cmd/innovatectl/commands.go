package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/innovatetogether/go-innovate/adapters/gocommand"
	innovatecommand "github.com/innovatetogether/go-innovate/command"
	"github.com/innovatetogether/go-innovate/core"
	innovatequery "github.com/innovatetogether/go-innovate/query"
	"github.com/innovatetogether/go-innovate/view"
	"github.com/spf13/cobra"
)

func newStatusCommand(holder *appHolder, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured overrides and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			status, err := gocommand.Query[innovatequery.PreferenceStatusMessage, core.PreferenceStatus](
				cmd.Context(), innovatequery.PreferenceStatusMessage{},
			)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), flags.json, statusOutput(status), func(w io.Writer) {
				fmt.Fprintf(w, "api base url:      %s\n", status.APIBaseURL)
				fmt.Fprintf(w, "absolute url:      %s\n", describeOverride(status.AbsoluteURLSet, status.AbsoluteProfileURL))
				fmt.Fprintf(w, "override subject:  %s\n", describeOverride(status.OverrideSubjectSet, status.OverrideSubjectID))
				session := "signed out"
				if status.SessionPresent {
					session = status.SessionSubjectID
				}
				fmt.Fprintf(w, "session:           %s\n", session)
				fmt.Fprintf(w, "dev mode:          %t\n", status.DevMode)
			})
		},
	}
}

func newResolveCommand(holder *appHolder, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the current user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := holder.get()
			if err != nil {
				return err
			}
			loader := view.NewProfileLoader(a.service)
			defer loader.Close()
			snapshot := loader.Load(cmd.Context())

			out := resolveOutput(snapshot)
			if err := writeOutput(cmd.OutOrStdout(), flags.json, out, func(w io.Writer) {
				fmt.Fprintf(w, "strategy: %s\n", out.Strategy)
				if snapshot.State != view.StateLoaded {
					fmt.Fprintf(w, "error:    %s (%s)\n", out.Message, out.ErrorKind)
					return
				}
				fmt.Fprintf(w, "id:       %s\n", out.Profile.ID)
				fmt.Fprintf(w, "name:     %s\n", out.Profile.DisplayName)
				fmt.Fprintf(w, "email:    %s\n", out.Profile.Email)
				fmt.Fprintf(w, "stats:    active=%g submitted=%g rewards=%g rating=%.1f\n",
					out.Stats.ActiveChallenges, out.Stats.SolutionsSubmitted, out.Stats.RewardsEarned, out.Stats.AvgRating)
			}); err != nil {
				return err
			}
			if snapshot.Err != nil {
				return snapshot.Err
			}
			return nil
		},
	}
}

func newSetURLCommand(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <url>",
		Short: "Set the absolute profile URL override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			return gocommand.Dispatch(cmd.Context(), innovatecommand.SetAbsoluteProfileURLMessage{URL: args[0]})
		},
	}
}

func newClearURLCommand(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-url",
		Short: "Remove the absolute profile URL override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			return gocommand.Dispatch(cmd.Context(), innovatecommand.ClearAbsoluteProfileURLMessage{})
		},
	}
}

func newSetIDCommand(holder *appHolder, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-id <profile-id>",
		Short: "Point the absolute URL override at /api/users/<profile-id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			result := gocmd.NewResult[string]()
			ctx := gocmd.ContextWithResult(cmd.Context(), result)
			if err := gocommand.Dispatch(ctx, innovatecommand.SetProfileByIDMessage{ProfileID: args[0]}); err != nil {
				return err
			}
			stored, _ := result.Load()
			return writeOutput(cmd.OutOrStdout(), flags.json, map[string]string{"absolute_url": stored}, func(w io.Writer) {
				fmt.Fprintf(w, "absolute url set to %s\n", stored)
			})
		},
	}
}

func newSetSubjectCommand(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "set-subject <subject-id>",
		Short: "Set the fixed user id override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			return gocommand.Dispatch(cmd.Context(), innovatecommand.SetOverrideSubjectIDMessage{SubjectID: args[0]})
		},
	}
}

func newClearSubjectCommand(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-subject",
		Short: "Remove the fixed user id override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			return gocommand.Dispatch(cmd.Context(), innovatecommand.ClearOverrideSubjectIDMessage{})
		},
	}
}

func newDevDefaultsCommand(holder *appHolder, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dev-defaults",
		Short: "Fill unset overrides with the dev defaults (requires INNOVATE_DEV_MODE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := holder.get(); err != nil {
				return err
			}
			result := gocmd.NewResult[core.DevDefaultsResult]()
			ctx := gocmd.ContextWithResult(cmd.Context(), result)
			if err := gocommand.Dispatch(ctx, innovatecommand.ApplyDevDefaultsMessage{}); err != nil {
				return err
			}
			applied, _ := result.Load()
			out := map[string][]string{"applied": nonNil(applied.Applied), "skipped": nonNil(applied.Skipped)}
			return writeOutput(cmd.OutOrStdout(), flags.json, out, func(w io.Writer) {
				fmt.Fprintf(w, "applied: %s\n", strings.Join(applied.Applied, ", "))
				fmt.Fprintf(w, "skipped: %s\n", strings.Join(applied.Skipped, ", "))
			})
		},
	}
}

type profileOutput struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email"`
	Raw         json.RawMessage `json:"raw"`
}

type statsOutput struct {
	ActiveChallenges   float64 `json:"active_challenges"`
	SolutionsSubmitted float64 `json:"solutions_submitted"`
	RewardsEarned      float64 `json:"rewards_earned"`
	AvgRating          float64 `json:"avg_rating"`
}

type resolutionOutput struct {
	State      string         `json:"state"`
	Strategy   string         `json:"strategy"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	StatusCode int            `json:"upstream_status,omitempty"`
	Message    string         `json:"message,omitempty"`
	Profile    *profileOutput `json:"profile,omitempty"`
	Stats      *statsOutput   `json:"stats,omitempty"`
}

func resolveOutput(snapshot view.Snapshot) resolutionOutput {
	out := resolutionOutput{
		State:    string(snapshot.State),
		Strategy: string(snapshot.Strategy),
		Message:  snapshot.Message,
	}
	if snapshot.Err != nil {
		out.ErrorKind = string(snapshot.Err.Kind)
		out.StatusCode = snapshot.Err.StatusCode
	}
	if snapshot.State == view.StateLoaded && snapshot.Profile != nil {
		out.Profile = &profileOutput{
			ID:          snapshot.Profile.ID,
			DisplayName: snapshot.Profile.DisplayName,
			Email:       snapshot.Profile.Email,
			Raw:         snapshot.Profile.Raw,
		}
		out.Stats = &statsOutput{
			ActiveChallenges:   snapshot.Stats.ActiveChallenges,
			SolutionsSubmitted: snapshot.Stats.SolutionsSubmitted,
			RewardsEarned:      snapshot.Stats.RewardsEarned,
			AvgRating:          snapshot.Stats.AvgRating,
		}
	}
	return out
}

func statusOutput(status core.PreferenceStatus) map[string]any {
	out := map[string]any{
		"api_base_url":    status.APIBaseURL,
		"dev_mode":        status.DevMode,
		"session_present": status.SessionPresent,
	}
	if status.AbsoluteURLSet {
		out["absolute_url"] = status.AbsoluteProfileURL
	}
	if status.OverrideSubjectSet {
		out["override_subject_id"] = status.OverrideSubjectID
	}
	if status.SessionPresent {
		out["session_subject_id"] = status.SessionSubjectID
	}
	return out
}

func describeOverride(set bool, value string) string {
	if !set {
		return "(not set)"
	}
	return fmt.Sprintf("%q", value)
}

func writeOutput(w io.Writer, asJSON bool, value any, text func(io.Writer)) error {
	if !asJSON {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
