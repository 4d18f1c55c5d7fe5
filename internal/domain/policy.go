package domain

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day in minutes after midnight.
// It marshals as "HH:MM".
type ClockTime int

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// MustClock is ParseClock for literals.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// On returns the instant of this clock time on t's calendar date.
func (c ClockTime) On(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location()).Add(time.Duration(c) * time.Minute)
}

// LunchWindow allows one lunch break of Minutes inside [Start, End].
type LunchWindow struct {
	Start   ClockTime `json:"start" yaml:"start"`
	End     ClockTime `json:"end" yaml:"end"`
	Minutes int       `json:"minutes" yaml:"minutes"`
}

// PrayerWindow allows one prayer break of Minutes, within two hours of Start.
type PrayerWindow struct {
	Start   ClockTime `json:"start" yaml:"start"`
	Minutes int       `json:"minutes" yaml:"minutes"`
}

const prayerWindowSpan = 2 * time.Hour

// End returns the upper bound of the prayer window.
func (p PrayerWindow) End() ClockTime { return p.Start + ClockTime(prayerWindowSpan/time.Minute) }

// Policy holds the working-hour, break, weekend and day-budget rules that
// drive schedule expansion.
type Policy struct {
	StartActivity ClockTime `json:"start_activity" yaml:"start_activity"`
	EndActivity   ClockTime `json:"end_activity" yaml:"end_activity"`
	StartTravel   ClockTime `json:"start_travel" yaml:"start_travel"`
	EndTravel     ClockTime `json:"end_travel" yaml:"end_travel"`

	ToleranceHours float64       `json:"tolerance_hours" yaml:"tolerance_hours"`
	Lunch          *LunchWindow  `json:"lunch,omitempty" yaml:"lunch"`
	Prayer         *PrayerWindow `json:"prayer,omitempty" yaml:"prayer"`

	AllowWeekendTravel     bool `json:"allow_weekend_travel" yaml:"allow_weekend_travel"`
	AllowWeekendActivities bool `json:"allow_weekend_activities" yaml:"allow_weekend_activities"`

	// MaxDays is the day budget; 0 means unconstrained.
	MaxDays     int  `json:"max_days" yaml:"max_days"`
	StretchDays bool `json:"stretch_days" yaml:"stretch_days"`

	EndDayEarlyThresholdHours float64 `json:"end_day_early_threshold_hours" yaml:"end_day_early_threshold_hours"`
	BaseLocation              string  `json:"base_location" yaml:"base_location"`
}

// DefaultPolicy returns the standard field-mission working rules.
func DefaultPolicy() Policy {
	return Policy{
		StartActivity:             MustClock("08:00"),
		EndActivity:               MustClock("16:30"),
		StartTravel:               MustClock("07:30"),
		EndTravel:                 MustClock("19:00"),
		ToleranceHours:            0.5,
		Lunch:                     &LunchWindow{Start: MustClock("12:30"), End: MustClock("14:00"), Minutes: 60},
		EndDayEarlyThresholdHours: 1.5,
	}
}

// Validate rejects windows the expander cannot make progress in.
func (p Policy) Validate() error {
	const day = ClockTime(24 * 60)

	if p.StartActivity < 0 || p.EndActivity > day || p.StartActivity >= p.EndActivity {
		return fmt.Errorf("%w: activity window %s-%s", ErrInvalidPolicy, p.StartActivity, p.EndActivity)
	}
	if p.StartTravel < 0 || p.EndTravel > day || p.StartTravel >= p.EndTravel {
		return fmt.Errorf("%w: travel window %s-%s", ErrInvalidPolicy, p.StartTravel, p.EndTravel)
	}
	if p.ToleranceHours < 0 {
		return fmt.Errorf("%w: tolerance_hours must be >= 0", ErrInvalidPolicy)
	}
	if p.EndDayEarlyThresholdHours < 0 {
		return fmt.Errorf("%w: end_day_early_threshold_hours must be >= 0", ErrInvalidPolicy)
	}
	if p.MaxDays < 0 {
		return fmt.Errorf("%w: max_days must be >= 0", ErrInvalidPolicy)
	}
	if l := p.Lunch; l != nil {
		if l.Start >= l.End || l.Minutes <= 0 {
			return fmt.Errorf("%w: lunch window %s-%s/%dmin", ErrInvalidPolicy, l.Start, l.End, l.Minutes)
		}
	}
	if pr := p.Prayer; pr != nil {
		if pr.Start < 0 || pr.Start >= day || pr.Minutes <= 0 {
			return fmt.Errorf("%w: prayer window %s/%dmin", ErrInvalidPolicy, pr.Start, pr.Minutes)
		}
	}
	return nil
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
