// Package calendar converts seconds-since-epoch timestamps into Gregorian
// calendar fields without depending on the time package's zone database. All
// functions are pure and total for timestamps at or after the 1970 epoch.
package calendar

const (
	secondsPerMinute   = 60
	secondsPerHour     = 60 * secondsPerMinute
	SecondsPerDay      = 24 * secondsPerHour
	secondsPerYear     = 365 * SecondsPerDay
	secondsPerLeapYear = 366 * SecondsPerDay
	originYear         = 1970
)

// IsLeapYear reports whether the year is a Gregorian leap year.
func IsLeapYear(year uint64) bool {
	if year%4 != 0 {
		return false
	}
	if year%100 != 0 {
		return true
	}
	return year%400 == 0
}

// DaysInMonth returns the number of days in the month (1-12) for the year.
// Out-of-range months yield zero.
func DaysInMonth(month, year uint64) uint64 {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

// leapYearsBefore counts leap years strictly before the given year.
func leapYearsBefore(year uint64) uint64 {
	y := year - 1
	return y/4 - y/100 + y/400
}

// secondsUntilYear returns the epoch timestamp of January 1st of the year.
func secondsUntilYear(year uint64) uint64 {
	leaps := leapYearsBefore(year) - leapYearsBefore(originYear)
	return secondsPerLeapYear*leaps + secondsPerYear*(year-originYear-leaps)
}

// YearOf converts a timestamp into a calendar year. The initial estimate
// assumes 365-day years and is corrected downward one year at a time.
func YearOf(timestamp uint64) uint64 {
	year := originYear + timestamp/secondsPerYear
	accounted := secondsUntilYear(year)
	for accounted > timestamp {
		year--
		if IsLeapYear(year) {
			accounted -= secondsPerLeapYear
		} else {
			accounted -= secondsPerYear
		}
	}
	return year
}

// MonthOf returns the calendar month (1-12) of the timestamp.
func MonthOf(timestamp uint64) uint64 {
	year := YearOf(timestamp)
	accounted := secondsUntilYear(year)
	for month := uint64(1); month <= 12; month++ {
		monthSeconds := SecondsPerDay * DaysInMonth(month, year)
		if accounted+monthSeconds > timestamp {
			return month
		}
		accounted += monthSeconds
	}
	return 12
}

// DayOf returns the day of month (1-31) of the timestamp.
func DayOf(timestamp uint64) uint64 {
	year := YearOf(timestamp)
	accounted := secondsUntilYear(year)
	for month := uint64(1); month <= 12; month++ {
		monthSeconds := SecondsPerDay * DaysInMonth(month, year)
		if accounted+monthSeconds > timestamp {
			break
		}
		accounted += monthSeconds
	}
	return (timestamp-accounted)/SecondsPerDay + 1
}

// HourOf returns the hour of day (0-23) of the timestamp.
func HourOf(timestamp uint64) uint64 {
	return timestamp / secondsPerHour % 24
}

// MinuteOf returns the minute of hour (0-59) of the timestamp.
func MinuteOf(timestamp uint64) uint64 {
	return timestamp / secondsPerMinute % 60
}

// SecondOf returns the second of minute (0-59) of the timestamp.
func SecondOf(timestamp uint64) uint64 {
	return timestamp % 60
}

// WeekdayOf returns the day of week with 0 = Sunday. The epoch started on a
// Thursday, hence the offset of 4.
func WeekdayOf(timestamp uint64) uint64 {
	return (timestamp/SecondsPerDay + 4) % 7
}
