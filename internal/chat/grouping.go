package chat

import (
	"sort"
	"time"

	"github.com/ammar1510/voicelink/internal/models"
)

const (
	labelToday     = "Today"
	labelYesterday = "Yesterday"
)

// MessageGroup is one day section of a conversation view.
type MessageGroup struct {
	Label    string           `json:"label"`
	Messages []models.Message `json:"messages"`
}

// GroupForDisplay orders messages chronologically and splits them into
// day sections. The sort is stable, so messages sharing a timestamp keep
// their stored order. The current day's section always renders last,
// even when clock skew put later timestamps in another section. The
// input is never modified; calling twice yields the same result.
func GroupForDisplay(messages []models.Message, now time.Time) []MessageGroup {
	ordered := chronological(messages)

	var groups []MessageGroup
	index := make(map[string]int)
	for _, m := range ordered {
		label := dayLabel(m.Timestamp, now)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, MessageGroup{Label: label})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}

	for i, g := range groups {
		if g.Label == labelToday && i != len(groups)-1 {
			groups = append(append(groups[:i], groups[i+1:]...), g)
			break
		}
	}

	return groups
}

// chronological returns a copy sorted by timestamp, oldest first.
func chronological(messages []models.Message) []models.Message {
	ordered := make([]models.Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return ordered
}

// dayLabel names the section a timestamp belongs to: Today, Yesterday,
// the weekday name within the current week, or the date.
func dayLabel(ts, now time.Time) string {
	if sameDay(ts, now) {
		return labelToday
	}
	if sameDay(ts, now.AddDate(0, 0, -1)) {
		return labelYesterday
	}
	if startOfWeek(ts).Equal(startOfWeek(now)) {
		return ts.Weekday().String()
	}
	return ts.Format("01/02/2006")
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// startOfWeek returns midnight of the Sunday starting t's week.
func startOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(t.Weekday()))
}
