package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"baselav/internal/codec"
	"baselav/internal/model"
	"baselav/internal/service/tracker"
)

const colWidth = 20

func initCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the sheet and its header row if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			if err := app.tracker.EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sheet is ready")
			return nil
		},
	}
}

func listCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List service records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			kindFlag, _ := cmd.Flags().GetString("kind")
			var (
				records []model.ServiceRecord
				err     error
			)
			if kindFlag == "" {
				records, err = app.tracker.ListRecords(ctx)
			} else {
				kind, ok := model.ParseServiceKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown kind %q, use reparacion or mantenimiento", kindFlag)
				}
				records, err = app.tracker.ListRecordsByKind(ctx, kind)
			}
			if err != nil {
				return err
			}
			return app.printRecords(cmd, records)
		},
	}
	cmd.Flags().String("kind", "", "Filter by kind: reparacion or mantenimiento")
	return cmd
}

func showCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one service record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			r, err := app.tracker.GetRecord(ctx, args[0])
			if err != nil {
				return err
			}
			return app.printRecord(cmd, r)
		},
	}
}

func createCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			in, err := app.inputFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			r, err := app.tracker.CreateRecord(ctx, in)
			if err != nil {
				return err
			}
			return app.printRecord(cmd, r)
		},
	}
	addRecordFlags(cmd.Flags())
	cmd.Flags().Bool("reminder", true, "Enable the yearly maintenance reminder")
	cmd.Flags().String("kind", string(model.ServiceKindMaintenance), "reparacion or mantenimiento")
	cmd.Flags().String("type", string(model.ApplianceWasher), "Appliance type")
	return cmd
}

func updateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a record; only flags that are set are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			patch, err := app.patchFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update, set at least one flag")
			}
			r, err := app.tracker.UpdateRecord(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return app.printRecord(cmd, r)
		},
	}
	addRecordFlags(cmd.Flags())
	cmd.Flags().Bool("reminder", false, "Enable or disable the yearly reminder")
	cmd.Flags().String("kind", "", "reparacion or mantenimiento")
	cmd.Flags().String("type", "", "Appliance type")
	return cmd
}

func deleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			if err := app.tracker.DeleteRecord(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %s deleted\n", args[0])
			return nil
		},
	}
}

func addRecordFlags(fs *pflag.FlagSet) {
	fs.String("client", "", "Client name")
	fs.String("address", "", "Client address")
	fs.String("phone", "", "Client phone")
	fs.String("email", "", "Client email")
	fs.String("brand", "", "Appliance brand")
	fs.String("model", "", "Appliance model")
	fs.Float64("weight", 0, "Capacity in kg")
	fs.Int("age", 0, "Appliance age in years")
	fs.Bool("rat-guard", false, "Has a rat guard")
	fs.Bool("cover", false, "Has a cover")
	fs.String("date", "", "Service date: 2006-01-02 or RFC 3339")
	fs.String("work", "", "Work description")
	fs.Float64("cost", 0, "Total cost")
	fs.String("notes", "", "Notes")
	fs.String("future-issues", "", "Expected future issues")
}

func (a *App) inputFromFlags(fs *pflag.FlagSet) (tracker.RecordInput, error) {
	var in tracker.RecordInput
	in.ClientName, _ = fs.GetString("client")
	in.Address, _ = fs.GetString("address")
	in.Phone, _ = fs.GetString("phone")
	in.Email = optionalString(fs, "email")
	in.Brand, _ = fs.GetString("brand")
	in.Model = optionalString(fs, "model")
	in.WeightKg, _ = fs.GetFloat64("weight")
	in.AgeYears, _ = fs.GetInt("age")
	in.HasRatGuard, _ = fs.GetBool("rat-guard")
	in.HasCover, _ = fs.GetBool("cover")
	in.WorkDescription, _ = fs.GetString("work")
	in.TotalCost, _ = fs.GetFloat64("cost")
	in.Notes = optionalString(fs, "notes")
	in.FutureIssues = optionalString(fs, "future-issues")
	in.ReminderEnabled, _ = fs.GetBool("reminder")

	typ, _ := fs.GetString("type")
	in.ApplianceType = model.ApplianceType(typ)

	kindFlag, _ := fs.GetString("kind")
	kind, ok := model.ParseServiceKind(kindFlag)
	if !ok {
		return in, fmt.Errorf("unknown kind %q, use reparacion or mantenimiento", kindFlag)
	}
	in.Kind = kind

	dateFlag, _ := fs.GetString("date")
	if dateFlag == "" {
		in.ServiceDate = time.Now()
	} else {
		date, err := a.parseDate(dateFlag)
		if err != nil {
			return in, err
		}
		in.ServiceDate = date
	}
	return in, nil
}

// patchFromFlags переносит в патч только явно заданные флаги.
func (a *App) patchFromFlags(fs *pflag.FlagSet) (tracker.RecordPatch, error) {
	var p tracker.RecordPatch
	p.ClientName = changedString(fs, "client")
	p.Address = changedString(fs, "address")
	p.Phone = changedString(fs, "phone")
	p.Email = changedString(fs, "email")
	p.Brand = changedString(fs, "brand")
	p.Model = changedString(fs, "model")
	p.WorkDescription = changedString(fs, "work")
	p.Notes = changedString(fs, "notes")
	p.FutureIssues = changedString(fs, "future-issues")

	if fs.Changed("weight") {
		v, _ := fs.GetFloat64("weight")
		p.WeightKg = &v
	}
	if fs.Changed("age") {
		v, _ := fs.GetInt("age")
		p.AgeYears = &v
	}
	if fs.Changed("rat-guard") {
		v, _ := fs.GetBool("rat-guard")
		p.HasRatGuard = &v
	}
	if fs.Changed("cover") {
		v, _ := fs.GetBool("cover")
		p.HasCover = &v
	}
	if fs.Changed("cost") {
		v, _ := fs.GetFloat64("cost")
		p.TotalCost = &v
	}
	if fs.Changed("reminder") {
		v, _ := fs.GetBool("reminder")
		p.ReminderEnabled = &v
	}
	if fs.Changed("type") {
		v, _ := fs.GetString("type")
		typ := model.ApplianceType(v)
		p.ApplianceType = &typ
	}
	if fs.Changed("kind") {
		v, _ := fs.GetString("kind")
		kind, ok := model.ParseServiceKind(v)
		if !ok {
			return p, fmt.Errorf("unknown kind %q, use reparacion or mantenimiento", v)
		}
		p.Kind = &kind
	}
	if fs.Changed("date") {
		v, _ := fs.GetString("date")
		date, err := a.parseDate(v)
		if err != nil {
			return p, err
		}
		p.ServiceDate = &date
	}
	return p, nil
}

// parseDate дата без времени считается полуночью в настроенном часовом поясе.
func (a *App) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, a.location); err == nil {
		return t, nil
	}
	if t, ok := codec.ParseDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use 2006-01-02 or RFC 3339", s)
}

func changedString(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetString(name)
	return &v
}

func optionalString(fs *pflag.FlagSet, name string) *string {
	v, _ := fs.GetString(name)
	if v == "" {
		return nil
	}
	return &v
}

func (a *App) printRecords(cmd *cobra.Command, records []model.ServiceRecord) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		if records == nil {
			records = []model.ServiceRecord{}
		}
		return printJSON(w, records)
	}

	fmt.Fprintf(w, "Found %d records:\n", len(records))
	fmt.Fprintf(w, "%-12s %-12s %-*s %-*s %-14s %s\n", "ID", "Date", colWidth, "Client", colWidth, "Appliance", "Kind", "Cost")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 12+12+colWidth*2+14+14))
	for _, r := range records {
		fmt.Fprintf(w, "%-12s %-12s %-*s %-*s %-14s %.2f\n",
			r.ID, a.date(r.ServiceDate), colWidth, r.ClientName, colWidth, string(r.ApplianceType)+" "+r.Brand, r.Kind, r.TotalCost)
	}
	return nil
}

func (a *App) printRecord(cmd *cobra.Command, r model.ServiceRecord) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		return printJSON(w, r)
	}

	fmt.Fprintf(w, "ID:            %s\n", r.ID)
	fmt.Fprintf(w, "Registered:    %s\n", a.date(r.RegisteredAt))
	fmt.Fprintf(w, "Client:        %s\n", r.ClientName)
	fmt.Fprintf(w, "Address:       %s\n", r.Address)
	fmt.Fprintf(w, "Phone:         %s\n", r.Phone)
	fmt.Fprintf(w, "Email:         %s\n", orDash(r.Email))
	fmt.Fprintf(w, "Appliance:     %s %s %s\n", r.ApplianceType, r.Brand, r.ModelOrEmpty())
	fmt.Fprintf(w, "Weight:        %g kg\n", r.WeightKg)
	fmt.Fprintf(w, "Age:           %d\n", r.AgeYears)
	fmt.Fprintf(w, "Rat guard:     %t\n", r.HasRatGuard)
	fmt.Fprintf(w, "Cover:         %t\n", r.HasCover)
	fmt.Fprintf(w, "Kind:          %s\n", r.Kind)
	fmt.Fprintf(w, "Service date:  %s\n", a.date(r.ServiceDate))
	fmt.Fprintf(w, "Work:          %s\n", r.WorkDescription)
	fmt.Fprintf(w, "Cost:          %.2f\n", r.TotalCost)
	fmt.Fprintf(w, "Notes:         %s\n", orDash(r.Notes))
	fmt.Fprintf(w, "Future issues: %s\n", orDash(r.FutureIssues))
	fmt.Fprintf(w, "Reminder:      %t\n", r.ReminderEnabled)
	fmt.Fprintf(w, "Next reminder: %s\n", a.optDate(r.NextReminder))
	fmt.Fprintf(w, "Last alert:    %s\n", a.optDate(r.LastAlertSent))
	fmt.Fprintf(w, "Contacted:     %t\n", r.Contacted)
	return nil
}

func (a *App) date(t time.Time) string {
	return t.In(a.location).Format("2006-01-02")
}

func (a *App) optDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return a.date(*t)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
