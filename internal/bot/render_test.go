package bot

import (
	"testing"

	"github.com/ashureev/cinemabot/internal/domain"
)

func TestLinkKeyboardTwoPerRow(t *testing.T) {
	links := []domain.WatchLink{
		{Name: "Okko", URL: "https://okko.tv"},
		{Name: "Иви", URL: "https://ivi.ru"},
		{Name: "Wink", URL: "https://wink.ru"},
	}
	rows := LinkKeyboard(links)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("unexpected layout: %+v", rows)
	}
	if rows[1][0].URL != "https://wink.ru" || rows[1][0].Data != "" {
		t.Fatalf("unexpected last button: %+v", rows[1][0])
	}
	if LinkKeyboard(nil) != nil {
		t.Fatal("expected nil keyboard for no links")
	}
}

func TestActionKeyboardCallbacks(t *testing.T) {
	rows := ActionKeyboard()
	want := []string{"/stats", "/history", "/help"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, row := range rows {
		if len(row) != 1 || row[0].Data != want[i] {
			t.Fatalf("row %d = %+v, want callback %s", i, row, want[i])
		}
	}
}

func TestMirrorURL(t *testing.T) {
	got := MirrorURL("https://www.kinopoisk.gg/{kind}/{id}/", domain.Ref{Kind: domain.KindSeries, ID: "464963"})
	if got != "https://www.kinopoisk.gg/series/464963/" {
		t.Fatalf("unexpected mirror url %q", got)
	}
}

func TestHelpTextFallsBackForEmptyName(t *testing.T) {
	if got := HelpText("  "); got[:len("Привет, друг,")] != "Привет, друг," {
		t.Fatalf("unexpected greeting %q", got)
	}
}

func TestNormalizeTextReplacesNoBreakSpace(t *testing.T) {
	if got := normalizeText("a\u00a0b\u00a0c"); got != "a b c" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestLinkKeyboardSkipsEmptyURLs(t *testing.T) {
	rows := LinkKeyboard([]domain.WatchLink{
		{Name: "Okko"},
		{Name: "Иви", URL: "https://ivi.ru"},
		{Name: "Wink", URL: ""},
		{Name: "Start", URL: "https://start.ru"},
	})
	if len(rows) != 1 || len(rows[0]) != 2 || rows[0][0].Text != "Иви" || rows[0][1].Text != "Start" {
		t.Fatalf("unexpected layout: %+v", rows)
	}
	if LinkKeyboard([]domain.WatchLink{{Name: "Okko"}}) != nil {
		t.Fatal("expected nil keyboard when no link has a URL")
	}
}
