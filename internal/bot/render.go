package bot

import (
	"fmt"
	"strings"

	"github.com/ashureev/cinemabot/internal/domain"
)

const (
	followUpText    = "Чем я ещё могу тебе помочь?"
	statsHeader     = "А вот и твоя статистика поиска:\n"
	statsEmptyText  = "Извини, твоя персональная история поиска пуста."
	historyHeader   = "Твоя история поиска:\n"
	historyEmpty    = "Твоя история поиска пока пуста."
	noLinksText     = "Извини, официальных ссылок у меня для тебя нет, но я попробую что-нибудь придумать 😉."
	linksText       = "А вот и официальные ссылки на просмотр, но это ещё не всё 😉."
	mirrorText      = "Бесплатная ссылка на месте 🚀"
	mirrorButton    = "Осуждаемая ссылка 😡"
	malformedText   = "Извини, я ничего не нашёл 😿."
	failureText     = "Что-то пошло не так, попробуй ещё раз чуть позже 🙏"
	unknownUserName = "друг"
)

// HelpText returns the capability summary addressed to name.
func HelpText(name string) string {
	if strings.TrimSpace(name) == "" {
		name = unknownUserName
	}
	return "Привет, " + name + ", это Cinemabot! С моей помощью ты можешь:\n " +
		"1. 📝 Написать название фильма/сериала/аниме, тогда я верну тебе его описание, " +
		"оценку и постер, а также скажу, где его можно посмотреть.\n" +
		"2. 📈 Написать /stats, тогда я покажу, что и сколько раз лично ты искал с моей помощью.\n" +
		"3. 📖 Написать /history, тогда я верну твою историю поиска.\n" +
		"4. 🌟 Написать /help, тогда я покажу это сообщение снова.\n" +
		"Также у меня есть удобные inline кнопочки с командами ✨."
}

// StatsText renders per-title counts as "title | count" lines.
func StatsText(rows []domain.TitleCount) string {
	if len(rows) == 0 {
		return statsEmptyText
	}
	var b strings.Builder
	b.WriteString(statsHeader)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s | %d\n", r.Title, r.Count)
	}
	return b.String()
}

// HistoryText renders titles one per line in the order given.
func HistoryText(titles []string) string {
	if len(titles) == 0 {
		return historyEmpty
	}
	var b strings.Builder
	b.WriteString(historyHeader)
	for _, t := range titles {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return b.String()
}

// InfoText renders the name, both ratings and the description.
func InfoText(md *domain.Metadata) string {
	var kp, imdb *float64
	if md.Rating != nil {
		kp, imdb = md.Rating.KP, md.Rating.IMDB
	}
	var description string
	if md.Description != nil {
		description = *md.Description
	}
	return fmt.Sprintf("Название: %s\nРейтинг на Кинопоиске %s\nРейтинг на IMDB %s\n%s",
		md.Title(),
		domain.FormatRating(kp),
		domain.FormatRating(imdb),
		normalizeText(description),
	)
}

// normalizeText replaces no-break spaces with plain spaces.
func normalizeText(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}
