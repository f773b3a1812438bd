package app

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/1ureka/lanspeed/internal/transfer"
	"github.com/1ureka/lanspeed/internal/util"
)

// PrintSummary renders one table row per transfer of a cycle.
func PrintSummary(results []transfer.Result) {
	if len(results) == 0 {
		return
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(summaryRows(results)).Render(); err != nil {
		clientLog.Warn("failed to render summary: %v", err)
	}
}

func summaryRows(results []transfer.Result) pterm.TableData {
	rows := pterm.TableData{{"Kind", "#", "Time", "Throughput", "Received", "Success Rate", "Status"}}
	for _, r := range results {
		rate := "-"
		if r.Kind == transfer.KindDatagram {
			rate = fmt.Sprintf("%.4f%%", r.SuccessRate())
		}
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		rows = append(rows, []string{
			string(r.Kind),
			fmt.Sprint(r.ID),
			fmt.Sprintf("%.4fs", r.Elapsed.Seconds()),
			util.FormatBits(r.Throughput()),
			util.FormatBytes(float64(r.Bytes)),
			rate,
			status,
		})
	}
	return rows
}
