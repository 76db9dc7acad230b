package sandbox

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const emptyRunOutput = "✅ Code exécuté avec succès !\n\nUtilisez test() pour exécuter des tests."

var summaryRule = strings.Repeat("━", 29)

// Render formats events and counters as the human-readable report
func Render(events []Event, counters Counters) string {
	lines := make([]string, 0, len(events)+4)

	for _, ev := range events {
		switch ev.Kind {
		case EventPass:
			lines = append(lines, fmt.Sprintf("✅ Test %d: %s", ev.Index, ev.Description))
		case EventFail:
			lines = append(lines, fmt.Sprintf("❌ Test %d: %s", ev.Index, ev.Description))
			if ev.Message != "" {
				lines = append(lines, "   ↳ "+ev.Message)
			}
		case EventLog:
			lines = append(lines, "ℹ️  "+ev.Message)
		}
	}

	if counters.Tests > 0 {
		lines = append(lines,
			"",
			summaryRule,
			fmt.Sprintf("📊 Résumé: %d réussi(s), %d échoué(s) sur %d test(s)", counters.Passed, counters.Failed, counters.Tests),
		)
		if counters.Failed == 0 {
			lines = append(lines, "✨ Tous les tests sont passés avec succès !")
		}
	}

	if len(lines) == 0 {
		return emptyRunOutput
	}
	return strings.Join(lines, "\n")
}

// TimeoutMessage is the failure text of a run stopped by its deadline
func TimeoutMessage(timeout time.Duration) string {
	seconds := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("Timeout: Execution was interrupted after %s seconds (infinite loop detected?)", seconds)
}
