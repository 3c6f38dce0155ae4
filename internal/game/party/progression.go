package party

// baseThreshold is the experience needed to reach level 2; each subsequent
// level doubles the requirement.
const baseThreshold = 500

// maxLevel caps progression so the doubling series stays in int range.
const maxLevel = 30

// ThresholdFor returns the total experience required to reach the given
// level. Level 1 requires none.
func ThresholdFor(level int) int {
	if level <= 1 {
		return 0
	}
	if level > maxLevel {
		level = maxLevel
	}
	return baseThreshold << (level - 2)
}

// LevelFor returns the level a character with the given total experience has
// earned.
func LevelFor(experience int) int {
	level := 1
	for level < maxLevel && experience >= ThresholdFor(level+1) {
		level++
	}
	return level
}

// ApplyExperience credits the award and raises the character's level to match
// the new total.
//
// Precondition: award >= 0.
// Postcondition: Returns the number of levels gained; Level never decreases.
func (c *Character) ApplyExperience(award int) int {
	c.Experience += award
	earned := LevelFor(c.Experience)
	if earned <= c.Level {
		return 0
	}
	gained := earned - c.Level
	c.Level = earned
	return gained
}
