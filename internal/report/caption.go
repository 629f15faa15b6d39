package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"yuan-rate-bot/internal/analysis"
)

// DisplayPlaces is the number of fractional digits shown to users.
const DisplayPlaces = 4

// FormatCaption renders the reply caption for a summary.
func FormatCaption(sourceURL string, sum analysis.Summary) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Взято с API %s\n\n", sourceURL))
	builder.WriteString("Курс Юаня\n\n")
	builder.WriteString(fmt.Sprintf("Курс %s за 5 дней на **%s ₽**\n", trendWord(sum.Trend5d), formatRub(sum.Delta5d.Abs())))
	builder.WriteString(fmt.Sprintf("Курс %s за 1 день на **%s ₽**\n\n", trendWord(sum.Trend1d), formatRub(sum.Delta1d.Abs())))
	builder.WriteString(fmt.Sprintf("Курс на сегодня: **%s ₽**\n\n", formatRub(sum.LastValue)))
	builder.WriteString(fmt.Sprintf("Прогноз на завтра: **%s ₽**", formatRub(sum.ForecastNext)))
	return builder.String()
}

func trendWord(t analysis.Trend) string {
	if t == analysis.TrendUp {
		return "📈 вырос"
	}
	return "📉 упал"
}

func formatRub(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}
