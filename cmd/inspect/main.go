package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/logging"
	"github.com/danielpatrickdp/partygm/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to partygm.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/partygm.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *sessionID != "" {
		err = runDetailMode(st, *sessionID, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(st *store.Store, last int, jsonOut bool) error {
	sums, err := st.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	if jsonOut {
		return printJSON(sums)
	}

	fmt.Printf("%-12s  %-12s  %3s  %7s  %s\n", "Session", "State", "Act", "Players", "Saved")
	fmt.Printf("%-12s+-%-12s+-%3s+-%7s+-%s\n",
		"------------", "------------", "---", "-------", "--------------------")
	for _, s := range sums {
		fmt.Printf("%-12s  %-12s  %3d  %7d  %s\n",
			shortID(s.SessionID), s.State, s.Act, s.PlayerCount,
			s.SavedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	SessionID  string                  `json:"session_id"`
	State      string                  `json:"state"`
	Act        int                     `json:"act"`
	Players    []string                `json:"players"`
	Scores     map[string]int          `json:"scores"`
	EventCount int                     `json:"event_count"`
	FactCount  int                     `json:"fact_count"`
	FactsByCat map[facts.Category]int  `json:"facts_by_category"`
	Decisions  []logging.DecisionEntry `json:"decisions"`
}

func runDetailMode(st *store.Store, sessionID string, jsonOut bool) error {
	b, err := st.LoadBundle(sessionID)
	if err != nil {
		return err
	}
	decisions, err := logging.ListBySession(st.DB(), sessionID, 200)
	if err != nil {
		return err
	}

	byCat := map[facts.Category]int{}
	for cat, ids := range b.FactsDB.ByCategory {
		if len(ids) > 0 {
			byCat[cat] = len(ids)
		}
	}
	players := make([]string, len(b.Setup.Players))
	for i, p := range b.Setup.Players {
		players[i] = fmt.Sprintf("%s (%s)", p.Name, p.ID)
	}

	out := detailOutput{
		SessionID:  b.Setup.SessionID,
		State:      b.State,
		Act:        b.Act,
		Players:    players,
		Scores:     b.EventLog.AllScores(),
		EventCount: b.EventLog.Len(),
		FactCount:  b.FactsDB.Len(),
		FactsByCat: byCat,
		Decisions:  decisions,
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:  %s\n", out.SessionID)
	fmt.Printf("State:    %s (act %d)\n", out.State, out.Act)
	fmt.Printf("Events:   %d\n", out.EventCount)
	fmt.Printf("Facts:    %d\n", out.FactCount)

	fmt.Printf("\nScores:\n")
	printScores(out.Scores)

	fmt.Printf("\nFacts by category:\n")
	for _, cat := range facts.Categories {
		if n := byCat[cat]; n > 0 {
			fmt.Printf("  %-16s %d\n", cat, n)
		}
	}

	fmt.Printf("\nDecisions:\n")
	for _, d := range out.Decisions {
		fmt.Printf("  [%s] %-18s %-9s %s\n",
			d.CreatedAt.Format("15:04:05"), d.RequestType, d.Action, d.Reason)
	}
	return nil
}

func printScores(scores map[string]int) {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return scores[ids[i]] > scores[ids[j]] })
	for _, id := range ids {
		fmt.Printf("  %-12s %d\n", id, scores[id])
	}
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
