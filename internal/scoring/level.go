// Package scoring holds the pure score and level rules shared by the submit
// path, the progress query, and the leaderboard. Every call site that needs a
// level goes through LevelFromXP so the thresholds cannot drift apart.
package scoring

// XPPerPoint is the XP awarded per point scored, on every submission.
const XPPerPoint = 10

const (
	levelOneCeiling = 100 // XP below this is level 1
	xpPerLevel      = 200 // each level past 2 costs another 200 XP
)

// LevelFromXP maps accumulated XP to a level.
// Level 1: 0-99, level 2: 100-299, level 3: 300-499, and so on.
func LevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	if xp < levelOneCeiling {
		return 1
	}
	return (xp-levelOneCeiling)/xpPerLevel + 2
}

// XPThresholdForLevel returns the XP at which the given level starts. It is the
// inverse of LevelFromXP and is used only for progress-within-level display,
// never for leveling decisions.
func XPThresholdForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return levelOneCeiling + (level-2)*xpPerLevel
}
