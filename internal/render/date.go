package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/mohammad-safakhou/novachat/internal/newslist"
)

// Locale is the only display locale cards are formatted for.
const Locale = "tr-TR"

var trMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// FormatDate renders a free-form publish date as a long Turkish calendar date
// ("1 Ocak 2024"). Values that cannot be read as a date, or that carry no year,
// are returned unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return newslist.DefaultPublishDate
	}
	if raw == newslist.DefaultPublishDate {
		return raw
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil || t.Year() == 0 {
		return raw
	}
	return LongDate(t)
}

// LongDate formats t as "<day> <month> <year>" using Turkish month names.
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), trMonths[t.Month()-1], t.Year())
}
