package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/dashboard"
	"github.com/synergysphere/sphere/internal/form"
	"github.com/synergysphere/sphere/internal/metrics"
	"github.com/synergysphere/sphere/internal/models"
)

// fieldFlags maps command-line flags to form fields, in form order.
var fieldFlags = []struct {
	flag  string
	field form.Field
	usage string
}{
	{"name", form.FieldName, "Name"},
	{"desc", form.FieldDescription, "Description"},
	{"status", form.FieldStatus, "Status (Planning, In Progress, Review, Completed)"},
	{"priority", form.FieldPriority, "Priority (High, Medium, Low)"},
	{"due", form.FieldDueDate, "Due date as YYYY-MM-DD (empty clears it)"},
	{"progress", form.FieldProgress, "Progress percentage 0-100"},
}

// newResourceCmd builds the "project" or "task" command group.
func newResourceCmd(opts *rootOptions, kind models.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: "Manage " + kind.Plural(),
	}
	cmd.AddCommand(
		newListCmd(opts, kind),
		newShowCmd(opts, kind),
		newAddCmd(opts, kind),
		newEditCmd(opts, kind),
	)
	if kind == models.KindProject {
		cmd.AddCommand(newAddMemberCmd(opts))
	}
	return cmd
}

func newAddMemberCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-member [project-id] [user-id]",
		Short: "Add a user to a project you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()
			if _, err := e.requireSession(); err != nil {
				return err
			}

			m, err := e.client.AddProjectMember(cmd.Context(), models.ID(args[0]), models.ID(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s <%s> to project %s\n", m.Name, m.Email, args[0])
			return nil
		},
	}
}

// openDashboard opens the environment and a dashboard for kind on the
// persisted session.
func openDashboard(cmd *cobra.Command, opts *rootOptions, kind models.Kind) (*env, *dashboard.Dashboard, error) {
	e, err := openEnv(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := e.requireSession()
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	d, err := dashboard.New(kind, e.client, s, dashboard.WithLogger(e.logger))
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, d, nil
}

func newListCmd(opts *rootOptions, kind models.Kind) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + kind.Plural(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, d, err := openDashboard(cmd, opts, kind)
			if err != nil {
				return err
			}
			defer e.Close()
			defer d.Dispose()

			if err := d.Mount(cmd.Context()); err != nil {
				return err
			}
			d.SetQuery(query)

			today := time.Now()
			out := cmd.OutOrStdout()
			visible := d.Visible()
			if len(visible) == 0 {
				if d.Query() != "" {
					fmt.Fprintf(out, "No %s match %q\n", kind.Plural(), d.Query())
				} else {
					fmt.Fprintf(out, "No %s found\n", kind.Plural())
				}
			} else {
				printResources(out, visible, today)
			}
			fmt.Fprintln(out)
			printSummary(out, kind, d.Summary(today), len(visible))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "Only show records whose name or description contains this text")
	return cmd
}

func newShowCmd(opts *rootOptions, kind models.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show " + string(kind) + " details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, d, err := openDashboard(cmd, opts, kind)
			if err != nil {
				return err
			}
			defer e.Close()
			defer d.Dispose()

			if err := d.Mount(cmd.Context()); err != nil {
				return err
			}
			r, ok := d.Get(models.ID(args[0]))
			if !ok {
				return fmt.Errorf("%s %s not found", kind.Label(), args[0])
			}
			printResource(cmd.OutOrStdout(), kind, r, time.Now())
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions, kind models.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a " + string(kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, d, err := openDashboard(cmd, opts, kind)
			if err != nil {
				return err
			}
			defer e.Close()
			defer d.Dispose()

			f := d.OpenCreate()
			if err := applyFieldFlags(cmd, f); err != nil {
				return err
			}
			saved, err := d.SubmitCreate(cmd.Context())
			if err != nil {
				return formError(f, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s: %s\n", kind, saved.ID, saved.Name)
			return nil
		},
	}
	addFieldFlags(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newEditCmd(opts *rootOptions, kind models.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a " + string(kind),
		Long:  "Edit a " + string(kind) + ". Only the fields given as flags change; the full record is sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, d, err := openDashboard(cmd, opts, kind)
			if err != nil {
				return err
			}
			defer e.Close()
			defer d.Dispose()

			if err := d.Mount(cmd.Context()); err != nil {
				return err
			}
			f, err := d.OpenEdit(models.ID(args[0]))
			if err != nil {
				return err
			}
			if err := applyFieldFlags(cmd, f); err != nil {
				return err
			}
			saved, err := d.SubmitEdit(cmd.Context())
			if err != nil {
				return formError(f, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s: %s\n", kind, saved.ID, saved.Name)
			return nil
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func addFieldFlags(cmd *cobra.Command) {
	for _, ff := range fieldFlags {
		cmd.Flags().String(ff.flag, "", ff.usage)
	}
}

// applyFieldFlags copies every flag the user set into the form.
func applyFieldFlags(cmd *cobra.Command, f *form.Form) error {
	for _, ff := range fieldFlags {
		if !cmd.Flags().Changed(ff.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(ff.flag)
		if err := f.Update(ff.field, v); err != nil {
			return fmt.Errorf("--%s: %w", ff.flag, err)
		}
	}
	return nil
}

// formError prefers the message the form settled on, which is what an
// interactive user would see.
func formError(f *form.Form, err error) error {
	if msg := f.Message(); msg != "" {
		return errors.New(msg)
	}
	return err
}

func printResources(w io.Writer, items []models.Resource, today time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPRIORITY\tPROGRESS\tDUE")
	for _, r := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
			r.ID, truncate(r.Name, 40), r.Status, r.Priority, r.Progress, dueColumn(today, r))
	}
	tw.Flush()
}

func dueColumn(today time.Time, r models.Resource) string {
	if r.DueDate.IsZero() {
		return "-"
	}
	return r.DueDate.String() + " (" + metrics.DueLabel(today, r.DueDate) + ")"
}

func printSummary(w io.Writer, kind models.Kind, s metrics.Summary, shown int) {
	fmt.Fprintf(w, "%d of %d %s", shown, s.Total, kind.Plural())
	for _, st := range models.Statuses {
		if n := s.ByStatus[st]; n > 0 {
			fmt.Fprintf(w, " · %s %d", st, n)
		}
	}
	fmt.Fprintf(w, " · %d overdue · %d due soon · avg %d%%\n", s.Overdue, s.DueSoon, s.AvgProgress)
}

func printResource(w io.Writer, kind models.Kind, r models.Resource, today time.Time) {
	fmt.Fprintf(w, "ID:          %s\n", r.ID)
	fmt.Fprintf(w, "Name:        %s\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", r.Description)
	}
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	fmt.Fprintf(w, "Priority:    %s\n", r.Priority)
	fmt.Fprintf(w, "Progress:    %d%%\n", r.Progress)
	fmt.Fprintf(w, "Due:         %s\n", dueColumn(today, r))
	if !r.CreatedBy.IsZero() {
		fmt.Fprintf(w, "Created by:  %s\n", r.CreatedBy)
	}
	if kind == models.KindProject && len(r.Members) > 0 {
		names := make([]string, 0, len(r.Members))
		for _, m := range r.Members {
			name := m.Name
			if name == "" {
				name = m.Email
			}
			if name == "" {
				name = m.ID.String()
			}
			names = append(names, name)
		}
		fmt.Fprintf(w, "Members:     %s\n", strings.Join(names, ", "))
	}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
