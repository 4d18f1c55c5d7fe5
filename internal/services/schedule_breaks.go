package services

import (
	"mission-planner-service/internal/domain"
	"time"
)

type breakSlot struct {
	start  time.Time
	dur    time.Duration
	kind   domain.BreakKind
	merged bool
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

func (s *schedulerState) lunchOpen() bool  { return s.p.Lunch != nil && !s.lunchDone[s.day] }
func (s *schedulerState) prayerOpen() bool { return s.p.Prayer != nil && !s.prayerDone[s.day] }

func (s *schedulerState) lunchWindow() (time.Time, time.Time) {
	return s.p.Lunch.Start.On(s.date), s.p.Lunch.End.On(s.date)
}

func (s *schedulerState) prayerWindow() (time.Time, time.Time) {
	return s.p.Prayer.Start.On(s.date), s.p.Prayer.End().On(s.date)
}

// lunchAt builds a lunch slot starting at t. It absorbs the prayer break
// when the prayer window overlaps the slot and prayer is still owed today.
func (s *schedulerState) lunchAt(t time.Time) breakSlot {
	b := breakSlot{start: t, dur: minutes(s.p.Lunch.Minutes), kind: domain.BreakLunch}
	if s.prayerOpen() {
		ps, pe := s.prayerWindow()
		if t.Before(pe) && t.Add(b.dur).After(ps) {
			b.merged = true
			b.dur += minutes(s.p.Prayer.Minutes)
		}
	}
	return b
}

func (s *schedulerState) prayerAt(t time.Time) breakSlot {
	return breakSlot{start: t, dur: minutes(s.p.Prayer.Minutes), kind: domain.BreakPrayer}
}

func (s *schedulerState) slotAt(kind domain.BreakKind, t time.Time) breakSlot {
	if kind == domain.BreakLunch {
		return s.lunchAt(t)
	}
	return s.prayerAt(t)
}

// travelBreak finds the break owed during the travel piece [a, b]. When the
// leg arrives at b inside the window the break follows the arrival;
// otherwise the piece is split at the window opening.
func (s *schedulerState) travelBreak(a, b time.Time, arrives bool) (breakSlot, bool) {
	if s.lunchOpen() {
		ls, le := s.lunchWindow()
		if a.Before(le) && b.After(ls) {
			if arrives && !b.After(le) {
				return s.lunchAt(b), true
			}
			return s.lunchAt(maxTime(a, ls)), true
		}
	}
	if s.prayerOpen() {
		ps, pe := s.prayerWindow()
		if a.Before(pe) && b.After(ps) {
			if arrives && !b.After(pe) {
				return s.prayerAt(b), true
			}
			return s.prayerAt(maxTime(a, ps)), true
		}
	}
	return breakSlot{}, false
}

// breakDue returns the break whose window contains t.
func (s *schedulerState) breakDue(t time.Time) (breakSlot, bool) {
	if s.lunchOpen() {
		ls, le := s.lunchWindow()
		if !t.Before(ls) && t.Before(le) {
			return s.lunchAt(t), true
		}
	}
	if s.prayerOpen() {
		ps, pe := s.prayerWindow()
		if !t.Before(ps) && t.Before(pe) {
			return s.prayerAt(t), true
		}
	}
	return breakSlot{}, false
}

// breakWithin returns the earliest owed break whose window opens strictly
// inside (a, b), along with the end of that window.
func (s *schedulerState) breakWithin(a, b time.Time) (breakSlot, time.Time, bool) {
	var (
		slot      breakSlot
		windowEnd time.Time
		found     bool
	)
	if s.lunchOpen() {
		ls, le := s.lunchWindow()
		if ls.After(a) && ls.Before(b) {
			slot, windowEnd, found = s.lunchAt(ls), le, true
		}
	}
	if s.prayerOpen() {
		ps, pe := s.prayerWindow()
		if ps.After(a) && ps.Before(b) && (!found || ps.Before(slot.start)) {
			slot, windowEnd, found = s.prayerAt(ps), pe, true
		}
	}
	return slot, windowEnd, found
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
