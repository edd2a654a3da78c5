package engine

import "fmt"

// One turn is one day.
const DaysPerWeek = 7

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekOf returns the 1-based week a turn falls in.
func WeekOf(turn int) int {
	if turn < 1 {
		return 1
	}
	return (turn-1)/DaysPerWeek + 1
}

// DayLabel returns a human-readable calendar label for a turn, e.g.
// "Week 2, Tuesday (day 9)".
func DayLabel(turn int) string {
	if turn < 1 {
		turn = 1
	}
	return fmt.Sprintf("Week %d, %s (day %d)", WeekOf(turn), dayNames[(turn-1)%DaysPerWeek], turn)
}
