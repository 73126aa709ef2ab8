package scoring

// Level is the learning level assigned by the most recent IQ assessment.
// It gates which learning modules and roadmap steps are shown.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists all levels in ascending order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

const (
	advancedPercent     = 80
	intermediatePercent = 50
)

// LevelFor maps a score out of total to a Level. Both thresholds are inclusive.
// A non-positive total yields LevelBeginner.
func LevelFor(score, total int) Level {
	if total <= 0 {
		return LevelBeginner
	}
	// Compare in integers so 4/5 lands exactly on the 80% boundary.
	switch {
	case score*100 >= total*advancedPercent:
		return LevelAdvanced
	case score*100 >= total*intermediatePercent:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// OrDefault returns l, or LevelBeginner when l is empty or unknown.
func (l Level) OrDefault() Level {
	if l.Valid() {
		return l
	}
	return LevelBeginner
}
