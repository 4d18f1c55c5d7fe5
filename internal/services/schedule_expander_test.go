package services

import (
	"encoding/json"
	"math/rand/v2"
	"mission-planner-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2026-10-19.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(day time.Time, clock string) time.Time {
	return domain.MustClock(clock).On(day)
}

func noBreakPolicy() domain.Policy {
	p := domain.DefaultPolicy()
	p.Lunch = nil
	return p
}

func hour(n float64) domain.Segment {
	return domain.Segment{DistanceMeters: int(n * 70000), DurationSeconds: int(n * 3600)}
}

func visit(city string, hours float64) domain.Site {
	return domain.Site{City: city, Kind: "Field", Activity: "Inspection", VisitDurationHours: hours, OvernightAllowed: true}
}

func baseTrip(base string, sites ...domain.Site) []domain.Site {
	return BuildNodes(sites, base)
}

func expand(t *testing.T, in ExpandInput) domain.Itinerary {
	t.Helper()
	if in.StartDate.IsZero() {
		in.StartDate = monday
	}
	it, err := ExpandSchedule(in)
	require.NoError(t, err)
	assertWellFormed(t, it)
	return it
}

func kinds(events []domain.ScheduleEvent) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func eventsOf(it domain.Itinerary, k domain.EventKind) []domain.ScheduleEvent {
	var out []domain.ScheduleEvent
	for _, e := range it.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// assertWellFormed checks the invariants every itinerary must satisfy.
func assertWellFormed(t *testing.T, it domain.Itinerary) {
	t.Helper()
	require.NotEmpty(t, it.Events)

	for i := 1; i < len(it.Events); i++ {
		prev, cur := it.Events[i-1], it.Events[i]
		require.GreaterOrEqual(t, cur.Day, prev.Day, "event %d day went backwards", i)
		if cur.Day == prev.Day {
			require.False(t, cur.Start.Before(prev.Start), "event %d (%s) starts before %s", i, cur.Label, prev.Label)
		}
	}
	for _, e := range it.Events {
		require.False(t, e.End.Before(e.Start), "event %q ends before it starts", e.Label)
	}

	last := it.Events[len(it.Events)-1]
	assert.Equal(t, domain.EventMissionEnd, last.Kind)
	assert.Equal(t, it.Stats.TotalDays, last.Day)
	assert.Equal(t, 1, it.CountKind(domain.EventMissionEnd, 0))

	recount := domain.RecountStats(it.Events)
	assert.Equal(t, it.Stats.TotalDays, recount.TotalDays)
	assert.InDelta(t, it.Stats.TotalKm, recount.TotalKm, 1e-3)
	assert.InDelta(t, it.Stats.TotalVisitHours, recount.TotalVisitHours, 1e-3)

	lunches := map[int]int{}
	prayers := map[int]int{}
	for _, e := range eventsOf(it, domain.EventBreak) {
		switch e.Break.Kind {
		case domain.BreakLunch:
			lunches[e.Day]++
			if e.Break.Merged {
				prayers[e.Day]++
			}
		case domain.BreakPrayer:
			prayers[e.Day]++
		}
	}
	for day, n := range lunches {
		assert.LessOrEqual(t, n, 1, "lunches on day %d", day)
	}
	for day, n := range prayers {
		assert.LessOrEqual(t, n, 1, "prayers on day %d", day)
	}
}

func TestExpandSingleDayRoundTrip(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 2)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   noBreakPolicy(),
	})

	assert.Equal(t, []domain.EventKind{
		domain.EventTravel, domain.EventVisit, domain.EventTravel, domain.EventMissionEnd,
	}, kinds(it.Events))

	assert.Equal(t, at(monday, "07:30"), it.Events[0].Start)
	assert.Equal(t, at(monday, "08:30"), it.Events[1].Start)
	assert.Equal(t, at(monday, "10:30"), it.Events[1].End)
	assert.Equal(t, at(monday, "11:30"), it.Events[3].Start)

	assert.Equal(t, "Dakar → Thiès (1h00, 70.0 km)", it.Events[0].Label)
	assert.Equal(t, "Thiès: Inspection", it.Events[1].Label)
	assert.Equal(t, domain.ScheduleStats{TotalDays: 1, TotalKm: 140, TotalVisitHours: 2}, it.Stats)
	assert.Zero(t, it.CountKind(domain.EventOvernight, 0), "mission ends at base")
}

func TestExpandLunchFollowsArrivalInsideWindow(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 4)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   domain.DefaultPolicy(),
	})

	assert.Equal(t, []domain.EventKind{
		domain.EventTravel, domain.EventVisit, domain.EventTravel, domain.EventBreak, domain.EventMissionEnd,
	}, kinds(it.Events))

	lunch := it.Events[3]
	assert.Equal(t, at(monday, "13:30"), lunch.Start)
	assert.Equal(t, at(monday, "14:30"), lunch.End)
	assert.Equal(t, "Lunch break", lunch.Label)
	assert.False(t, it.Events[2].Travel.Continued, "leg is not split")
}

func TestExpandLunchDeferredToVisitEnd(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 4.5)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   domain.DefaultPolicy(),
	})

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 1)
	assert.Equal(t, at(monday, "13:00"), visits[0].End)

	breaks := eventsOf(it, domain.EventBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, at(monday, "13:00"), breaks[0].Start)
	assert.Equal(t, at(monday, "14:00"), breaks[0].End)
}

func TestExpandLunchSplitsLongVisit(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 7)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   domain.DefaultPolicy(),
	})

	assert.Equal(t, []domain.EventKind{
		domain.EventTravel, domain.EventVisit, domain.EventBreak, domain.EventVisit, domain.EventTravel, domain.EventMissionEnd,
	}, kinds(it.Events))

	first, second := it.Events[1], it.Events[3]
	assert.Equal(t, at(monday, "12:30"), first.End)
	assert.InDelta(t, 4, first.Visit.Hours, 1e-9)
	assert.Equal(t, at(monday, "13:30"), second.Start)
	assert.Equal(t, at(monday, "16:30"), second.End)
	assert.True(t, second.Visit.Continued)
	assert.Equal(t, "Continuation of Inspection at Thiès", second.Label)
	assert.InDelta(t, 7, it.Stats.TotalVisitHours, 1e-9)
}

func TestExpandMergesLunchAndPrayer(t *testing.T) {
	p := domain.DefaultPolicy()
	p.Prayer = &domain.PrayerWindow{Start: domain.MustClock("13:00"), Minutes: 15}

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 4)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   p,
	})

	breaks := eventsOf(it, domain.EventBreak)
	require.Len(t, breaks, 1)
	assert.True(t, breaks[0].Break.Merged)
	assert.Equal(t, "Lunch and prayer break", breaks[0].Label)
	assert.Equal(t, 75*time.Minute, breaks[0].Duration())
}

func TestExpandPrayerAloneSplitsTravel(t *testing.T) {
	p := noBreakPolicy()
	p.Prayer = &domain.PrayerWindow{Start: domain.MustClock("09:00"), Minutes: 20}

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Matam", 1)),
		Segments: []domain.Segment{hour(4), hour(4)},
		Policy:   p,
	})

	require.Equal(t, domain.EventBreak, it.Events[1].Kind)
	assert.Equal(t, at(monday, "09:00"), it.Events[1].Start)
	assert.Equal(t, domain.BreakPrayer, it.Events[1].Break.Kind)

	legs := eventsOf(it, domain.EventTravel)
	require.Len(t, legs, 3)
	assert.InDelta(t, 280*1.5/4, legs[0].Travel.DistanceKm, 1e-9)
	assert.True(t, legs[1].Travel.Continued)
	assert.Equal(t, at(monday, "11:50"), legs[1].End)
}

func TestExpandCarriesVisitOverToNextDay(t *testing.T) {
	site := visit("Thiès", 10)
	site.MayContinueNextDay = true

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", site),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   noBreakPolicy(),
	})

	assert.Equal(t, []domain.EventKind{
		domain.EventTravel, domain.EventVisit, domain.EventDayEnd, domain.EventOvernight,
		domain.EventVisit, domain.EventTravel, domain.EventMissionEnd,
	}, kinds(it.Events))

	assert.True(t, it.Events[1].Visit.ToContinue)
	assert.Equal(t, "Thiès: Inspection (to continue)", it.Events[1].Label)
	assert.Equal(t, "Overnight in Thiès", it.Events[3].Label)

	tuesday := monday.AddDate(0, 0, 1)
	assert.Equal(t, 2, it.Events[4].Day)
	assert.Equal(t, at(tuesday, "08:00"), it.Events[4].Start)
	assert.Equal(t, at(tuesday, "10:00"), it.Events[4].End)
	assert.True(t, it.Events[4].Visit.Continued)
	assert.Equal(t, domain.ScheduleStats{TotalDays: 2, TotalKm: 140, TotalVisitHours: 10}, it.Stats)
}

func TestExpandFinishesWithinTolerance(t *testing.T) {
	site := visit("Thiès", 8.25)
	site.MayContinueNextDay = true

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", site),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   noBreakPolicy(),
	})

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 1)
	assert.Equal(t, at(monday, "16:45"), visits[0].End)
	assert.False(t, visits[0].Visit.ToContinue)
	assert.Equal(t, 1, it.Stats.TotalDays)
}

func TestExpandTruncatesWhenVisitCannotContinue(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 10)),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   noBreakPolicy(),
	})

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 1)
	assert.True(t, visits[0].Visit.Truncated)
	assert.Equal(t, at(monday, "16:30"), visits[0].End)
	assert.Equal(t, "Thiès: Inspection (truncated)", visits[0].Label)
	assert.InDelta(t, 8, it.Stats.TotalVisitHours, 1e-9)
	assert.Equal(t, 1, it.Stats.TotalDays)
}

func TestExpandInterruptedVisitLodgesAtBase(t *testing.T) {
	site := visit("Matam", 10)
	site.MayContinueNextDay = true
	site.OvernightAllowed = false

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", site),
		Segments: []domain.Segment{hour(3), hour(3)},
		Policy:   noBreakPolicy(),
	})

	assert.True(t, it.Events[1].Visit.Interrupted)
	assert.Equal(t, "Matam: Inspection (interrupted, no lodging possible)", it.Events[1].Label)

	reloc := eventsOf(it, domain.EventRelocationWarning)
	require.Len(t, reloc, 1)
	assert.Equal(t, "Matam", reloc[0].Relocation.City)
	assert.Equal(t, "Dakar", reloc[0].Relocation.LodgingCity)

	nights := eventsOf(it, domain.EventOvernight)
	require.Len(t, nights, 1)
	assert.Equal(t, "Dakar", nights[0].Place.City)
	assert.True(t, nights[0].Place.Fallback)
	assert.Equal(t, 2, it.Stats.TotalDays)
}

func TestExpandVisitOverrunCombinations(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)

	type wantVisit struct {
		end         time.Time
		toContinue  bool
		interrupted bool
		truncated   bool
	}

	cases := []struct {
		name        string
		hours       float64
		mayContinue bool
		overnight   bool

		visits      []wantVisit
		visitHours  float64
		nights      []string
		relocations []string
		days        int
	}{
		{
			name: "within tolerance, continuable, lodging", hours: 8.25, mayContinue: true, overnight: true,
			visits: []wantVisit{{end: at(monday, "16:45")}}, visitHours: 8.25, days: 1,
		},
		{
			name: "within tolerance, continuable, no lodging", hours: 8.25, mayContinue: true, overnight: false,
			visits: []wantVisit{{end: at(monday, "16:45")}}, visitHours: 8.25, days: 1,
		},
		{
			name: "within tolerance, not continuable, lodging", hours: 8.25, mayContinue: false, overnight: true,
			visits: []wantVisit{{end: at(monday, "16:30"), truncated: true}}, visitHours: 8, days: 1,
		},
		{
			name: "within tolerance, not continuable, no lodging", hours: 8.25, mayContinue: false, overnight: false,
			visits: []wantVisit{{end: at(monday, "16:30"), truncated: true}}, visitHours: 8, days: 1,
		},
		{
			name: "overrun, continuable, lodging", hours: 10, mayContinue: true, overnight: true,
			visits:     []wantVisit{{end: at(monday, "16:30"), toContinue: true}, {end: at(tuesday, "10:00")}},
			visitHours: 10, nights: []string{"Thiès"}, days: 2,
		},
		{
			name: "overrun, continuable, no lodging", hours: 10, mayContinue: true, overnight: false,
			visits:     []wantVisit{{end: at(monday, "16:30"), interrupted: true}, {end: at(tuesday, "10:00")}},
			visitHours: 10, nights: []string{"Dakar"}, relocations: []string{"Dakar"}, days: 2,
		},
		{
			name: "overrun, not continuable, lodging", hours: 10, mayContinue: false, overnight: true,
			visits: []wantVisit{{end: at(monday, "16:30"), truncated: true}}, visitHours: 8, days: 1,
		},
		{
			name: "overrun, not continuable, no lodging", hours: 10, mayContinue: false, overnight: false,
			visits: []wantVisit{{end: at(monday, "16:30"), truncated: true}}, visitHours: 8, days: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := visit("Thiès", tc.hours)
			site.MayContinueNextDay = tc.mayContinue
			site.OvernightAllowed = tc.overnight

			it := expand(t, ExpandInput{
				Sites:    baseTrip("Dakar", site),
				Segments: []domain.Segment{hour(1), hour(1)},
				Policy:   noBreakPolicy(),
			})

			visits := eventsOf(it, domain.EventVisit)
			require.Len(t, visits, len(tc.visits))
			for i, want := range tc.visits {
				got := visits[i].Visit
				assert.Equal(t, want.end, visits[i].End, "visit %d end", i)
				assert.Equal(t, want.toContinue, got.ToContinue, "visit %d to_continue", i)
				assert.Equal(t, want.interrupted, got.Interrupted, "visit %d interrupted", i)
				assert.Equal(t, want.truncated, got.Truncated, "visit %d truncated", i)
				assert.Equal(t, i > 0, got.Continued, "visit %d continued", i)
			}

			var nights, relocations []string
			for _, e := range eventsOf(it, domain.EventOvernight) {
				nights = append(nights, e.Place.City)
			}
			for _, e := range eventsOf(it, domain.EventRelocationWarning) {
				assert.Equal(t, "Thiès", e.Relocation.City)
				relocations = append(relocations, e.Relocation.LodgingCity)
			}
			assert.Equal(t, tc.nights, nights)
			assert.Equal(t, tc.relocations, relocations)
			assert.InDelta(t, tc.visitHours, it.Stats.TotalVisitHours, 1e-9)
			assert.Equal(t, tc.days, it.Stats.TotalDays)
		})
	}
}

func TestExpandArrivalAfterActivityHoursRestartsVisitNextDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)

	cases := []struct {
		name        string
		overnight   bool
		night       string
		relocations int
	}{
		{name: "lodging at site", overnight: true, night: "Matam"},
		{name: "no lodging at site", overnight: false, night: "Dakar", relocations: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := visit("Matam", 2)
			site.OvernightAllowed = tc.overnight

			it := expand(t, ExpandInput{
				Sites:    baseTrip("Dakar", site),
				Segments: []domain.Segment{hour(9.5), hour(1)},
				Policy:   noBreakPolicy(),
			})

			ends := eventsOf(it, domain.EventDayEnd)
			require.Len(t, ends, 1)
			assert.Equal(t, at(monday, "17:00"), ends[0].Start)

			nights := eventsOf(it, domain.EventOvernight)
			require.Len(t, nights, 1)
			assert.Equal(t, tc.night, nights[0].Place.City)
			assert.Equal(t, !tc.overnight, nights[0].Place.Fallback)
			assert.Len(t, eventsOf(it, domain.EventRelocationWarning), tc.relocations)

			visits := eventsOf(it, domain.EventVisit)
			require.Len(t, visits, 1)
			assert.Equal(t, 2, visits[0].Day)
			assert.Equal(t, at(tuesday, "08:00"), visits[0].Start)
			assert.Equal(t, at(tuesday, "10:00"), visits[0].End)
			assert.False(t, visits[0].Visit.Continued)
			assert.False(t, visits[0].Visit.Truncated)
			assert.InDelta(t, 2, it.Stats.TotalVisitHours, 1e-9)
			assert.Equal(t, 2, it.Stats.TotalDays)
		})
	}
}

func TestExpandMidnightTravelEndKeepsCalendar(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	p := noBreakPolicy()
	p.EndTravel = domain.MustClock("24:00")

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Matam", 2)),
		Segments: []domain.Segment{hour(20), hour(1)},
		Policy:   p,
	})

	travel := eventsOf(it, domain.EventTravel)
	require.Len(t, travel, 3)
	assert.Equal(t, tuesday, travel[0].End)
	assert.Equal(t, 2, travel[1].Day)
	assert.Equal(t, at(tuesday, "07:30"), travel[1].Start)
	assert.Equal(t, at(tuesday, "11:00"), travel[1].End)
	assert.True(t, travel[1].Travel.Continued)

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 1)
	assert.Equal(t, at(tuesday, "13:00"), visits[0].End)

	assert.Equal(t, 2, it.Stats.TotalDays)
	ret, days := missionDates(monday, it.Events)
	assert.Equal(t, tuesday, ret)
	assert.Equal(t, it.Stats.TotalDays, days)
}

func TestExpandMidnightActivityEndKeepsCalendar(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	p := noBreakPolicy()
	p.EndActivity = domain.MustClock("24:00")

	site := visit("Thiès", 20)
	site.MayContinueNextDay = true

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", site),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   p,
	})

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 2)
	assert.Equal(t, tuesday, visits[0].End)
	assert.True(t, visits[0].Visit.ToContinue)
	assert.Equal(t, 2, visits[1].Day)
	assert.Equal(t, at(tuesday, "08:00"), visits[1].Start)
	assert.Equal(t, at(tuesday, "12:30"), visits[1].End)

	assert.Equal(t, 2, it.Stats.TotalDays)
	_, days := missionDates(monday, it.Events)
	assert.Equal(t, it.Stats.TotalDays, days)
}

func TestExpandOvernightSearchesForward(t *testing.T) {
	blocked := visit("Podor", 2)
	blocked.OvernightAllowed = false
	p := noBreakPolicy()
	p.EndDayEarlyThresholdHours = 4

	it := expand(t, ExpandInput{
		Sites: []domain.Site{
			domain.BaseNode("Dakar"), blocked, visit("Saint-Louis", 1), domain.BaseNode("Dakar"),
		},
		Segments: []domain.Segment{hour(6), hour(1.5), hour(3)},
		Policy:   p,
	})

	nights := eventsOf(it, domain.EventOvernight)
	require.NotEmpty(t, nights)
	assert.Equal(t, "Saint-Louis", nights[0].Place.City)
	assert.True(t, nights[0].Place.Fallback)
}

func TestExpandSplitsLegAcrossDays(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Kédougou", 1)),
		Segments: []domain.Segment{hour(13), hour(1)},
		Policy:   noBreakPolicy(),
	})

	legs := eventsOf(it, domain.EventTravel)
	require.Len(t, legs, 3)
	assert.Equal(t, at(monday, "19:00"), legs[0].End)
	assert.InDelta(t, 910*11.5/13, legs[0].Travel.DistanceKm, 1e-9)
	assert.Equal(t, 2, legs[1].Day)
	assert.True(t, legs[1].Travel.Continued)
	assert.InDelta(t, 910, legs[0].Travel.DistanceKm+legs[1].Travel.DistanceKm, 1e-9)

	nights := eventsOf(it, domain.EventOvernight)
	require.Len(t, nights, 1)
	assert.Equal(t, "Dakar", nights[0].Place.City)
}

func TestExpandSkipsWeekend(t *testing.T) {
	site := visit("Thiès", 10)
	site.MayContinueNextDay = true
	friday := monday.AddDate(0, 0, 4)

	it := expand(t, ExpandInput{
		Sites:     baseTrip("Dakar", site),
		Segments:  []domain.Segment{hour(1), hour(1)},
		StartDate: friday,
		Policy:    noBreakPolicy(),
	})

	skips := eventsOf(it, domain.EventWeekendSkip)
	require.Len(t, skips, 2)
	assert.Equal(t, time.Saturday, skips[0].Start.Weekday())
	assert.Equal(t, "Weekend, activities skipped", skips[0].Label)
	assert.Equal(t, 4, it.Stats.TotalDays)

	visits := eventsOf(it, domain.EventVisit)
	require.Len(t, visits, 2)
	assert.Equal(t, time.Monday, visits[1].Start.Weekday())
}

func TestExpandClosesDayEarlyNearTravelEnd(t *testing.T) {
	p := noBreakPolicy()
	p.EndDayEarlyThresholdHours = 3

	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Tambacounda", 1), visit("Kédougou", 1)),
		Segments: []domain.Segment{hour(8), hour(1), hour(9)},
		Policy:   p,
	})

	ends := eventsOf(it, domain.EventDayEnd)
	require.NotEmpty(t, ends)
	assert.Equal(t, 1, ends[0].Day)
	assert.Equal(t, at(monday, "16:30"), ends[0].Start)

	nights := eventsOf(it, domain.EventOvernight)
	require.NotEmpty(t, nights)
	assert.Equal(t, "Tambacounda", nights[0].Place.City)
}

func TestExpandWithoutBaseEndsWithOvernight(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    BuildNodes([]domain.Site{visit("Thiès", 2), visit("Mbour", 2)}, ""),
		Segments: []domain.Segment{hour(1), hour(1)},
		Policy:   noBreakPolicy(),
	})

	n := len(it.Events)
	assert.Equal(t, domain.EventOvernight, it.Events[n-2].Kind)
	assert.Equal(t, "Thiès", it.Events[n-2].Place.City)
	assert.Equal(t, "Thiès: mission end", it.Events[n-1].Label)
	assert.Equal(t, at(monday, "08:00"), it.Events[0].Start, "first site waits for activity hours")
}

func TestExpandRepairsMissingSegments(t *testing.T) {
	coords := []domain.Coordinates{{Lon: -17.4467, Lat: 14.6928}, {Lon: -16.9359, Lat: 14.7910}, {Lon: -17.4467, Lat: 14.6928}}
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 1)),
		Coords:   coords,
		Segments: []domain.Segment{{}, {DistanceMeters: 70000}},
		Policy:   noBreakPolicy(),
	})

	legs := eventsOf(it, domain.EventTravel)
	require.Len(t, legs, 2)
	for _, l := range legs {
		assert.Greater(t, l.Travel.DurationSeconds, 0)
		assert.Greater(t, l.Travel.DistanceKm, 50.0)
	}
}

func TestExpandFloorsMissingSegmentsWithoutCoordinates(t *testing.T) {
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Dakar", 1)),
		Segments: []domain.Segment{{}, {}},
		Policy:   noBreakPolicy(),
	})

	legs := eventsOf(it, domain.EventTravel)
	require.Len(t, legs, 2)
	assert.Equal(t, 60, legs[0].Travel.DurationSeconds)
	assert.InDelta(t, 1, legs[0].Travel.DistanceKm, 1e-9)
}

func TestExpandRejectsInvalidInput(t *testing.T) {
	_, err := ExpandSchedule(ExpandInput{
		Sites:     baseTrip("Dakar", visit("Thiès", 1)),
		Segments:  []domain.Segment{hour(1)},
		StartDate: monday,
		Policy:    noBreakPolicy(),
	})
	assert.ErrorContains(t, err, "1 segments for 3 sites")

	bad := noBreakPolicy()
	bad.EndActivity = bad.StartActivity
	_, err = ExpandSchedule(ExpandInput{
		Sites:     baseTrip("Dakar", visit("Thiès", 1)),
		Segments:  []domain.Segment{hour(1), hour(1)},
		StartDate: monday,
		Policy:    bad,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestExpandScenarioThiesSaintLouis(t *testing.T) {
	// Realistic road times: Dakar-Thiès 1h10, Thiès-Saint-Louis 3h, Saint-Louis-Dakar 4h15.
	segs := []domain.Segment{
		{DistanceMeters: 72000, DurationSeconds: 4200},
		{DistanceMeters: 196000, DurationSeconds: 10800},
		{DistanceMeters: 264000, DurationSeconds: 15300},
	}
	p := noBreakPolicy()
	it := expand(t, ExpandInput{
		Sites:    baseTrip("Dakar", visit("Thiès", 2), visit("Saint-Louis", 3)),
		Segments: segs,
		Policy:   p,
	})

	// Saint-Louis would run to 16:40 and is truncated at 16:30; the 4h15
	// return cannot finish before 19:00 and spills into day 2.
	assert.Equal(t, 2, it.Stats.TotalDays)
	assert.InDelta(t, 532, it.Stats.TotalKm, 1e-9)

	for _, e := range eventsOf(it, domain.EventTravel) {
		assert.False(t, e.End.After(p.EndTravel.On(e.Start)), "travel %q ends after travel hours", e.Label)
	}
	last := it.Events[len(it.Events)-1]
	assert.Equal(t, domain.EventMissionEnd, last.Kind)
	assert.Equal(t, 2, last.Day)
}

func randomInput(r *rand.Rand) ExpandInput {
	n := 1 + r.IntN(6)
	sites := make([]domain.Site, 0, n)
	for i := 0; i < n; i++ {
		sites = append(sites, domain.Site{
			City:               []string{"Thiès", "Louga", "Matam", "Kolda", "Fatick", "Podor"}[i],
			Activity:           "Audit",
			VisitDurationHours: float64(r.IntN(25)) / 2,
			MayContinueNextDay: r.IntN(2) == 0,
			OvernightAllowed:   r.IntN(3) != 0,
		})
	}
	nodes := BuildNodes(sites, "Dakar")

	segs := make([]domain.Segment, len(nodes)-1)
	for i := range segs {
		secs := 600 + r.IntN(30000)
		segs[i] = domain.Segment{DistanceMeters: secs * 20, DurationSeconds: secs}
	}

	p := domain.DefaultPolicy()
	if r.IntN(2) == 0 {
		p.Prayer = &domain.PrayerWindow{Start: domain.MustClock("13:15"), Minutes: 15}
	}
	p.AllowWeekendTravel = r.IntN(2) == 0
	p.BaseLocation = "Dakar"

	return ExpandInput{
		Sites:     nodes,
		Segments:  segs,
		StartDate: monday.AddDate(0, 0, r.IntN(7)),
		Policy:    p,
	}
}

func TestExpandInvariantsOnRandomInputs(t *testing.T) {
	r := rand.New(rand.NewPCG(2026, 10))
	for trial := 0; trial < 200; trial++ {
		in := randomInput(r)
		it := expand(t, in)

		for _, e := range eventsOf(it, domain.EventTravel) {
			require.False(t, e.End.After(in.Policy.EndTravel.On(e.Start)), "trial %d: %q after travel hours", trial, e.Label)
		}
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(8, 1))
	for trial := 0; trial < 20; trial++ {
		in := randomInput(r)
		a, err := ExpandSchedule(in)
		require.NoError(t, err)
		b, err := ExpandSchedule(in)
		require.NoError(t, err)

		ja, err := json.Marshal(a)
		require.NoError(t, err)
		jb, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, string(ja), string(jb))
	}
}
