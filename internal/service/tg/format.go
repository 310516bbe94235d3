package tg

import (
	"fmt"
	"strings"
	"time"

	"baselav/internal/model"
)

const dateLayout = "02/01/2006"

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("S/ %.2f", v)
}

func kindLabel(k model.ServiceKind) string {
	switch k {
	case model.ServiceKindMaintenance:
		return "Mantenimiento"
	case model.ServiceKindRepair:
		return "Reparación"
	}
	return string(k)
}

func formatAlerts(due []model.ServiceRecord, loc *time.Location) string {
	if len(due) == 0 {
		return "No hay alertas pendientes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Alertas pendientes: %d\n", len(due))
	for i, r := range due {
		fmt.Fprintf(&b, "\n%d. %s - %s %s\n", i+1, r.ClientName, r.ApplianceType, r.Brand)
		fmt.Fprintf(&b, "   Tel: %s\n", r.Phone)
		fmt.Fprintf(&b, "   Último servicio: %s\n", formatDate(r.ServiceDate, loc))
		if r.NextReminder != nil {
			fmt.Fprintf(&b, "   Recordatorio: %s\n", formatDate(*r.NextReminder, loc))
		}
		fmt.Fprintf(&b, "   ID: %s\n", r.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistories(histories []model.History, loc *time.Location) string {
	if len(histories) == 0 {
		return "No se encontraron clientes"
	}
	var b strings.Builder
	for i, h := range histories {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", h.Client.ClientName, h.Client.Phone)
		fmt.Fprintf(&b, "%s %s", h.Appliance.ApplianceType, h.Appliance.Brand)
		if h.Appliance.Model != nil {
			fmt.Fprintf(&b, " %s", *h.Appliance.Model)
		}
		fmt.Fprintf(&b, ", %g kg\n", h.Appliance.WeightKg)
		for _, s := range h.Services {
			fmt.Fprintf(&b, "  • %s %s - %s (%s)\n",
				formatDate(s.ServiceDate, loc), kindLabel(s.Kind), s.WorkDescription, formatMoney(s.TotalCost))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(s model.Stats) string {
	return fmt.Sprintf(
		"Resumen del mes\nServicios: %d\nIngresos: %s\nAlertas pendientes: %d\nTotal de servicios: %d",
		s.ServicesThisMonth, formatMoney(s.IncomeThisMonth), s.PendingAlerts, s.TotalServices,
	)
}
