// cmd/tools/draft-check/main.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nominee-applications/internal/models"
	"nominee-applications/internal/wizard"
)

const dateLayout = "2006-01-02"

var errIncomplete = errors.New("draft is incomplete")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "draft-check: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft-check",
		Short: "Inspect nominee application drafts",
		Long: `draft-check reads an application draft exported from the draft store (either the raw
draft or the stored record with its position) and reports validation results or renders the
operator summary that would be delivered on submission.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newValidateCmd(),
		newSummaryCmd(),
	)
	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		strict bool
		today  string
	)
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Print field results and step completeness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDraft(args[0])
			if err != nil {
				return err
			}
			now, err := parseToday(today)
			if err != nil {
				return err
			}
			mode := wizard.ModeLenient
			if strict {
				mode = wizard.ModeStrict
			}
			if !printValidation(cmd.OutOrStdout(), d, mode, now) {
				return errIncomplete
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Use strict step completeness")
	cmd.Flags().StringVar(&today, "today", "", "Evaluate date rules as of this day (YYYY-MM-DD)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		mask      bool
		reference string
	)
	cmd := &cobra.Command{
		Use:   "summary <file.json>",
		Short: "Print the operator summary for a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDraft(args[0])
			if err != nil {
				return err
			}
			sub := wizard.BuildSubmission(d, wizard.SummaryOptions{
				Reference:     reference,
				Now:           time.Now().UTC(),
				MaskSensitive: mask,
			})
			_, err = io.WriteString(cmd.OutOrStdout(), sub.Text())
			return err
		},
	}
	cmd.Flags().BoolVar(&mask, "mask", false, "Mask account, national insurance and ID numbers")
	cmd.Flags().StringVar(&reference, "reference", "ND-PREVIEW0", "Reference printed in the summary")
	return cmd
}

func readDraft(path string) (models.ApplicationDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ApplicationDraft{}, fmt.Errorf("read draft: %w", err)
	}
	return decodeDraft(data)
}

// decodeDraft accepts both a bare draft and the {"draft": ..., "position": n} record
// written by the draft store.
func decodeDraft(data []byte) (models.ApplicationDraft, error) {
	var envelope struct {
		Draft json.RawMessage `json:"draft"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.ApplicationDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	raw := data
	if len(bytes.TrimSpace(envelope.Draft)) > 0 {
		raw = envelope.Draft
	}

	var d models.ApplicationDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.ApplicationDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	d.Sanitize()
	return d, nil
}

func parseToday(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q: %w", s, err)
	}
	return t, nil
}

// printValidation writes one block per step and reports whether every step is complete.
func printValidation(w io.Writer, d models.ApplicationDraft, mode wizard.CompletenessMode, today time.Time) bool {
	results := wizard.ValidateAll(d, today)
	allComplete := true

	for _, report := range wizard.Reports(d, mode, today) {
		status := "complete"
		if !report.Complete {
			allComplete = false
			status = "incomplete"
		}
		fmt.Fprintf(w, "Step %d %s: %s\n", int(report.Step), report.Title, status)
		if len(report.Missing) > 0 {
			names := make([]string, len(report.Missing))
			for i, id := range report.Missing {
				names[i] = string(id)
			}
			fmt.Fprintf(w, "  missing: %s\n", strings.Join(names, ", "))
		}

		for _, id := range wizard.StepFields(report.Step) {
			r := results[id]
			switch {
			case r.IsValid:
				fmt.Fprintf(w, "  ok    %s\n", id)
			case r.Message != "":
				fmt.Fprintf(w, "  error %s: %s\n", id, r.Message)
			default:
				fmt.Fprintf(w, "  unset %s\n", id)
			}
		}
	}
	return allComplete
}
