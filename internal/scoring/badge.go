package scoring

// Badge is derived from the number of solved problems. It is unrelated to the
// assessment Level even though the names overlap.
type Badge string

const (
	BadgeBeginner     Badge = "Beginner"
	BadgeIntermediate Badge = "Intermediate"
	BadgeAdvanced     Badge = "Advanced"
)

const (
	advancedBadgeSolved     = 10
	intermediateBadgeSolved = 5
)

// BadgeFor returns the badge earned with problemsSolved solved problems.
func BadgeFor(problemsSolved int) Badge {
	switch {
	case problemsSolved >= advancedBadgeSolved:
		return BadgeAdvanced
	case problemsSolved >= intermediateBadgeSolved:
		return BadgeIntermediate
	default:
		return BadgeBeginner
	}
}
