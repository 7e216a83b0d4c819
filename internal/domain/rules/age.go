package rules

import "time"

// AgeAt returns full years elapsed between birthdate and now in UTC.
func AgeAt(birthdate, now time.Time) int {
	if birthdate.IsZero() {
		return 0
	}
	b := birthdate.UTC()
	n := now.UTC()
	age := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
