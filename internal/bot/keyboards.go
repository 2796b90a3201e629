package bot

import (
	"strings"

	"github.com/ashureev/cinemabot/internal/domain"
)

// Command tags recognised by the handler. Free text has an empty tag.
const (
	CommandStart   = "start"
	CommandHelp    = "help"
	CommandStats   = "stats"
	CommandHistory = "history"
)

const linkRowWidth = 2

// Button is an inline keyboard button. Exactly one of URL or Data is set:
// URL buttons open a link, Data buttons send a callback.
type Button struct {
	Text string
	URL  string
	Data string
}

// ActionKeyboard returns the stats/history/help buttons, one per row.
func ActionKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Моя статистика 📈", Data: "/" + CommandStats}},
		{{Text: "История поиска 📖", Data: "/" + CommandHistory}},
		{{Text: "Помощь 🌟", Data: "/" + CommandHelp}},
	}
}

// LinkKeyboard lays out URL buttons two per row. Links without a URL are
// skipped; the result is nil when none remain.
func LinkKeyboard(links []domain.WatchLink) [][]Button {
	var (
		rows [][]Button
		row  []Button
	)
	for _, l := range links {
		if strings.TrimSpace(l.URL) == "" {
			continue
		}
		row = append(row, Button{Text: l.Name, URL: l.URL})
		if len(row) == linkRowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// MirrorURL fills the {kind} and {id} placeholders of template.
func MirrorURL(template string, ref domain.Ref) string {
	return strings.NewReplacer("{kind}", string(ref.Kind), "{id}", ref.ID).Replace(template)
}
