package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.buildReport(s.ownerFrom(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"report": report,
	})
}

// buildReport renders a text digest of one owner's archive: the decay clock,
// storage pressure, fidelity distribution, the items nearest degradation,
// and recent decay events. The dashboard and `entropic status` render it
// verbatim.
func (s *Server) buildReport(ownerID string) (string, error) {
	var b strings.Builder
	b.WriteString("## Entropic Archive\n")

	st, err := s.db.GetSimulationState(ownerID)
	if err != nil {
		return "", err
	}
	if st != nil {
		mode := "paused"
		if st.IsRunning {
			mode = "running"
		}
		if st.CurrentYear >= st.TotalYears {
			mode = "complete"
		}
		b.WriteString("\n### Simulation\n")
		fmt.Fprintf(&b, "- year %.0f of %.0f (%s)\n", st.CurrentYear, st.TotalYears, mode)
		fmt.Fprintf(&b, "- capacity %.0f KB, decaying %.1f%% every %.0f years\n",
			st.CurrentCapacityKB, st.DecayPercent, st.DecayIntervalYears)
	}

	items, err := s.db.ListActiveItems(ownerID)
	if err != nil {
		return "", err
	}
	total, err := s.db.CountItems(ownerID)
	if err != nil {
		return "", err
	}

	var storage float64
	counts := map[string]int{}
	for i := range items {
		storage += items[i].CurrentSizeKB
		counts[items[i].Stage]++
	}

	b.WriteString("\n### Storage\n")
	fmt.Fprintf(&b, "- %d active items (%d deleted), %.0f KB stored\n",
		len(items), total-len(items), storage)
	if st != nil && st.CurrentCapacityKB > 0 {
		fmt.Fprintf(&b, "- %.0f%% of capacity in use\n", storage/st.CurrentCapacityKB*100)
	}
	for _, stage := range []string{"full", "compressed", "summarized", "minimal"} {
		if n := counts[stage]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", stage, n)
		}
	}

	// Active items arrive in degradation order, so the head of the list is
	// what the next cycle reaches for first. Cap it to keep the digest from
	// becoming a wall of text.
	const maxAtRisk = 10
	if len(items) > 0 {
		b.WriteString("\n### Next To Degrade\n")
		n := len(items)
		if n > maxAtRisk {
			n = maxAtRisk
		}
		for _, it := range items[:n] {
			fmt.Fprintf(&b, "- %.1f %s (%s, %.0f KB)\n",
				it.SemanticScore, it.Title, it.Stage, it.CurrentSizeKB)
		}
	}

	events, err := s.db.ListDecayEvents(ownerID, 5)
	if err != nil {
		return "", err
	}
	if len(events) > 0 {
		b.WriteString("\n### Recent Decay Events\n")
		for _, ev := range events {
			ts := time.UnixMilli(ev.CreatedAt).Format("2006-01-02 15:04")
			fmt.Fprintf(&b, "- [%s] year %.0f: %d item(s) degraded, %.0f KB freed\n",
				ts, ev.Year, ev.ItemsAffected, ev.StorageBefore-ev.StorageAfter)
		}
	}

	unread, err := s.db.CountUnreadAlerts(ownerID)
	if err != nil {
		return "", err
	}
	if unread > 0 {
		fmt.Fprintf(&b, "\n%d unread alert(s)\n", unread)
	}

	return b.String(), nil
}
