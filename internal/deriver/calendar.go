package deriver

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// calendar 一次推导中的时间基准（均使用 now 所在时区）
type calendar struct {
	now   time.Time
	today time.Time // now 所在日历日的 00:00
}

func newCalendar(now time.Time) calendar {
	y, m, d := now.Date()
	return calendar{
		now:   now,
		today: time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
	}
}

// parseDate 解析 YYYY-MM-DD，失败返回 false
func (c calendar) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, c.now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// combine 由日期和 HH:MM 组合出具体时刻
func (c calendar) combine(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateTimeLayout, date+" "+clock, c.now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isToday 日期是否为今天
func (c calendar) isToday(day time.Time) bool {
	return day.Equal(c.today)
}

// addDays 今天之后第 n 天
func (c calendar) addDays(n int) time.Time {
	return c.today.AddDate(0, 0, n)
}

// formatAmount 固定两位小数，不做本地化
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
