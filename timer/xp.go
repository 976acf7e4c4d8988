package timer

// DefaultXPPerMinute is the reference reward rate. The exact rate is product
// tuning; monotonicity in minutes is the contract.
const DefaultXPPerMinute = 10

// Reward returns the XP awarded for a completed session of the given length
// at the default rate. Non-positive input earns nothing.
func Reward(minutes int) int {
	return RewardAt(minutes, DefaultXPPerMinute)
}

// RewardAt computes the reward at a custom per-minute rate.
func RewardAt(minutes, perMinute int) int {
	if minutes <= 0 || perMinute <= 0 {
		return 0
	}
	return minutes * perMinute
}

// LevelForXP derives the level for a cumulative XP total. Thresholds grow
// triangularly: reaching level n+1 from n costs 500*n more XP than the
// previous step, so level 2 is 500, level 3 is 1500, level 4 is 3000, and so
// on. Monotonic by construction.
func LevelForXP(total int) int {
	if total < 0 {
		total = 0
	}
	level := 1
	for total >= xpForLevel(level+1) {
		level++
	}
	return level
}

// xpForLevel is the cumulative XP required to reach a level.
func xpForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return 500 * n * (n + 1) / 2
}
