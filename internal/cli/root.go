// Package cli консольная утилита администратора поверх трекера.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"baselav/internal/model"
	"baselav/internal/service/tracker"
)

// Tracker операции трекера, которые вызывает утилита.
type Tracker interface {
	EnsureSchema(ctx context.Context) error

	ListRecords(ctx context.Context) ([]model.ServiceRecord, error)
	ListRecordsByKind(ctx context.Context, kind model.ServiceKind) ([]model.ServiceRecord, error)
	GetRecord(ctx context.Context, id string) (model.ServiceRecord, error)
	CreateRecord(ctx context.Context, in tracker.RecordInput) (model.ServiceRecord, error)
	UpdateRecord(ctx context.Context, id string, patch tracker.RecordPatch) (model.ServiceRecord, error)
	DeleteRecord(ctx context.Context, id string) error

	ListDueAlerts(ctx context.Context) ([]model.ServiceRecord, error)
	MarkContacted(ctx context.Context, id string) error

	ListHistories(ctx context.Context) ([]model.History, error)
	SearchHistories(ctx context.Context, clientQuery string) ([]model.History, error)
	GetHistory(ctx context.Context, applianceID string) (model.History, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// App зависимости команд. Tracker создается лениво через Connect,
// чтобы --help работал без переменных окружения.
type App struct {
	Connect  func(ctx context.Context) (Tracker, *time.Location, error)
	Timeout  time.Duration
	jsonOut  bool
	tracker  Tracker
	location *time.Location
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "trackerctl",
		Short: "Base Lavadoras admin CLI",
		Long: `Administra la hoja "Base Lavadoras - BD": servicios, historiales y alertas.

RECORDS:
  init        Create the sheet and header if missing
  list        List service records
  show        Show one record
  create      Register a new service
  update      Change fields of a record
  delete      Delete a record

ALERTS:
  alerts      Records whose yearly reminder is due
  contacted   Mark a due record as contacted

HISTORIES:
  histories   Appliance histories, optionally filtered by client
  history     One appliance history
  clients     Clients with their appliances
  stats       Monthly summary`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.tracker != nil {
				return nil
			}
			t, loc, err := app.Connect(cmd.Context())
			if err != nil {
				return err
			}
			if loc == nil {
				loc = time.UTC
			}
			app.tracker, app.location = t, loc
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&app.jsonOut, "json", "j", false, "Print JSON instead of a table")

	root.AddCommand(
		initCmd(app),
		listCmd(app),
		showCmd(app),
		createCmd(app),
		updateCmd(app),
		deleteCmd(app),
		alertsCmd(app),
		contactedCmd(app),
		historiesCmd(app),
		historyCmd(app),
		clientsCmd(app),
		statsCmd(app),
	)
	return root
}

func (a *App) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Timeout > 0 {
		return context.WithTimeout(ctx, a.Timeout)
	}
	return context.WithCancel(ctx)
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error generating JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
