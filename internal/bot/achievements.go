package bot

import "fmt"

// tierPhrases maps milestone counts to their celebratory phrasing. The table
// is presentation-only metadata: entries for tiers the operator did not
// configure (250, 500 by default) stay unreachable until those tiers are
// added to bot.achievement_tiers.
var tierPhrases = map[int64]string{
	1:   "first message 🎉",
	10:  "10 messages 🔟",
	50:  "50 messages 🥳",
	100: "100 messages 💯",
	250: "250 messages 🚀",
	500: "500 messages 🐐",
}

// achievementTracker detects when a user's message count lands exactly on a
// configured tier. It is a pure lookup; delivering the celebration is the
// caller's job.
type achievementTracker struct {
	tiers map[int64]struct{}
}

func newAchievementTracker(tiers []int64) *achievementTracker {
	set := make(map[int64]struct{}, len(tiers))
	for _, tier := range tiers {
		set[tier] = struct{}{}
	}
	return &achievementTracker{tiers: set}
}

// check returns the tier phrase when newCount exactly equals a configured
// threshold. Counts between tiers never fire; a skipped threshold is never
// triggered retroactively.
func (t *achievementTracker) check(newCount int64) (string, bool) {
	if _, ok := t.tiers[newCount]; !ok {
		return "", false
	}

	phrase, ok := tierPhrases[newCount]
	if !ok {
		phrase = fmt.Sprintf("%d messages 🎊", newCount)
	}
	return phrase, true
}
