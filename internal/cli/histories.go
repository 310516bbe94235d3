package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"baselav/internal/model"
)

func alertsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Records whose yearly reminder is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			due, err := app.tracker.ListDueAlerts(ctx)
			if err != nil {
				return err
			}
			if app.jsonOut {
				if due == nil {
					due = []model.ServiceRecord{}
				}
				return printJSON(cmd.OutOrStdout(), due)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Due alerts: %d\n", len(due))
			fmt.Fprintf(w, "%-12s %-*s %-14s %-12s %s\n", "ID", colWidth, "Client", "Phone", "Reminder", "Appliance")
			fmt.Fprintf(w, "%s\n", strings.Repeat("-", 12+colWidth+14+12+colWidth+4))
			for _, r := range due {
				fmt.Fprintf(w, "%-12s %-*s %-14s %-12s %s %s\n",
					r.ID, colWidth, r.ClientName, r.Phone, app.optDate(r.NextReminder), r.ApplianceType, r.Brand)
			}
			return nil
		},
	}
}

func contactedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contacted <id>",
		Short: "Mark a due record as contacted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			if err := app.tracker.MarkContacted(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %s marked as contacted\n", args[0])
			return nil
		},
	}
}

func historiesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "histories",
		Short: "Appliance histories, optionally filtered by client name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			client, _ := cmd.Flags().GetString("client")
			var (
				histories []model.History
				err       error
			)
			if client == "" {
				histories, err = app.tracker.ListHistories(ctx)
			} else {
				histories, err = app.tracker.SearchHistories(ctx, client)
			}
			if err != nil {
				return err
			}
			if app.jsonOut {
				if histories == nil {
					histories = []model.History{}
				}
				return printJSON(cmd.OutOrStdout(), histories)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Found %d appliances:\n", len(histories))
			fmt.Fprintf(w, "%-*s %-*s %-*s %s\n", colWidth*2, "Appliance ID", colWidth, "Client", colWidth, "Appliance", "Services")
			fmt.Fprintf(w, "%s\n", strings.Repeat("-", colWidth*4+12))
			for _, h := range histories {
				fmt.Fprintf(w, "%-*s %-*s %-*s %d\n",
					colWidth*2, h.ApplianceID, colWidth, h.Client.ClientName,
					colWidth, string(h.Appliance.ApplianceType)+" "+h.Appliance.Brand, len(h.Services))
			}
			return nil
		},
	}
	cmd.Flags().String("client", "", "Case-insensitive part of the client name")
	return cmd
}

func historyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <appliance-id>",
		Short: "Service history of one appliance, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			h, err := app.tracker.GetHistory(ctx, args[0])
			if err != nil {
				return err
			}
			if app.jsonOut {
				return printJSON(cmd.OutOrStdout(), h)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s, %s)\n", h.Client.ClientName, h.Client.Phone, h.Client.Address)
			fmt.Fprintf(w, "%s %s %s, %g kg\n", h.Appliance.ApplianceType, h.Appliance.Brand, orDash(h.Appliance.Model), h.Appliance.WeightKg)
			for _, s := range h.Services {
				fmt.Fprintf(w, "  %s  %-14s %-12s %.2f  %s\n", app.date(s.ServiceDate), s.Kind, s.ID, s.TotalCost, s.WorkDescription)
			}
			return nil
		},
	}
}

func clientsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "Clients with their appliances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			clients, err := app.tracker.ListClients(ctx)
			if err != nil {
				return err
			}
			if app.jsonOut {
				if clients == nil {
					clients = []model.Client{}
				}
				return printJSON(cmd.OutOrStdout(), clients)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Found %d clients:\n", len(clients))
			for _, c := range clients {
				fmt.Fprintf(w, "%s  %s  %s\n", c.ClientName, c.Phone, c.Address)
				for _, a := range c.Appliances {
					fmt.Fprintf(w, "  %-*s %d services\n", colWidth*2, a.ID, len(a.Services))
				}
			}
			return nil
		},
	}
}

func statsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Services and income this month, pending alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			s, err := app.tracker.Stats(ctx)
			if err != nil {
				return err
			}
			if app.jsonOut {
				return printJSON(cmd.OutOrStdout(), s)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Services this month: %d\n", s.ServicesThisMonth)
			fmt.Fprintf(w, "Income this month:   %.2f\n", s.IncomeThisMonth)
			fmt.Fprintf(w, "Pending alerts:      %d\n", s.PendingAlerts)
			fmt.Fprintf(w, "Total services:      %d\n", s.TotalServices)
			return nil
		},
	}
}
