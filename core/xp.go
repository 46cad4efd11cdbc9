package core

import "math"

// Level derives a user level from cumulative XP: floor(sqrt(xp / 100)).
func Level(xp uint64) int {
	return int(math.Sqrt(float64(xp) / 100))
}

// XPForLevel returns the XP required to reach the given level.
func XPForLevel(level int) uint64 {
	return uint64(level) * uint64(level) * 100
}

// XPToNextLevel returns how much XP is missing until the next level.
func XPToNextLevel(xp uint64) uint64 {
	return XPForLevel(Level(xp)+1) - xp
}
