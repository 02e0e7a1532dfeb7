package core

import "strings"

// RecurrenceType is the repetition period of a template.
type RecurrenceType uint8

const (
	RecurrenceNone RecurrenceType = iota
	Weekly
	Monthly
	Yearly
)

var recurrenceNames = map[RecurrenceType]string{
	Weekly:  "weekly",
	Monthly: "monthly",
	Yearly:  "yearly",
}

// ParseRecurrenceType maps "weekly", "monthly" or "yearly" to a type.
// Empty and "none" map to RecurrenceNone.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RecurrenceNone, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return RecurrenceNone, ErrInvalidRecurrence
}

func (r RecurrenceType) String() string {
	if name, ok := recurrenceNames[r]; ok {
		return name
	}
	return ""
}

// Step returns the n-th occurrence counted from anchor (n = 0 is the anchor
// itself). Monthly and yearly steps are measured from the anchor, so a
// Jan 31 schedule yields Feb 29 then Mar 31, never drifting.
func (r RecurrenceType) Step(anchor Date, n int) Date {
	switch r {
	case Weekly:
		return Date{Time: anchor.AddDate(0, 0, 7*n)}
	case Monthly:
		return anchor.AddMonthsClamped(n)
	case Yearly:
		return anchor.AddMonthsClamped(12 * n)
	}
	return anchor
}

func (r RecurrenceType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RecurrenceType) UnmarshalText(b []byte) error {
	parsed, err := ParseRecurrenceType(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
