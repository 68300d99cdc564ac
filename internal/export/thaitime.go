package export

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const ThaiTimeZone = "Asia/Bangkok"

var thaiMonthsShort = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// buddhistEraOffset converts a Gregorian year to the Thai solar calendar.
const buddhistEraOffset = 543

// LoadLocation resolves name, falling back to a fixed UTC+7 zone.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = ThaiTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// FormatThaiDateTime renders t as a th-TH medium date with a short time,
// e.g. "16 ต.ค. 2569 14:05".
func FormatThaiDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = LoadLocation(ThaiTimeZone)
	}
	local := t.In(loc)
	return fmt.Sprintf("%d %s %d %02d:%02d",
		local.Day(),
		thaiMonthsShort[local.Month()-1],
		local.Year()+buddhistEraOffset,
		local.Hour(),
		local.Minute(),
	)
}

// ParseLocalDateTime accepts RFC3339 or a datetime-local value
// ("2006-01-02T15:04"), the latter read in loc.
func ParseLocalDateTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = LoadLocation(ThaiTimeZone)
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", value)
}
