package scoring

import "time"

// DefaultProblemPoints is awarded for a problem that carries no point value.
const DefaultProblemPoints = 10

// DateLayout is the calendar-day format used for last-activity dates.
const DateLayout = time.DateOnly

// Progress is the points and streak portion of a profile.
type Progress struct {
	Points         int
	ProblemsSolved int
	CurrentStreak  int
	LongestStreak  int
	// LastActivity is a YYYY-MM-DD day, empty when the learner never solved anything.
	LastActivity string
}

// Day returns the UTC calendar day of t in DateLayout.
func Day(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ApplySolve returns p updated for one newly solved problem worth points
// (DefaultProblemPoints when points <= 0) on the UTC day of now.
//
// Callers must only invoke it on an unsolved -> solved transition.
func ApplySolve(p Progress, points int, now time.Time) Progress {
	if points <= 0 {
		points = DefaultProblemPoints
	}
	today := Day(now)
	yesterday := Day(now.UTC().AddDate(0, 0, -1))

	next := p
	next.Points += points
	next.ProblemsSolved++

	switch p.LastActivity {
	case "":
		next.CurrentStreak = 1
	case yesterday:
		next.CurrentStreak = p.CurrentStreak + 1
	case today:
		// Already active today.
	default:
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastActivity = today
	return next
}
