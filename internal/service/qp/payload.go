package qp

import (
	"fmt"
	"strconv"
	"time"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// Action selects between the create and update payload variants; create
// carries the upstream linking ids, update omits them.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
)

// datePortion is the split calendar date several DV360 payloads expect.
type datePortion struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func newDatePortion(t time.Time) datePortion {
	u := t.UTC()
	return datePortion{Year: u.Year(), Month: int(u.Month()), Day: u.Day()}
}

type dateRange struct {
	StartDate datePortion `json:"startDate"`
	EndDate   datePortion `json:"endDate"`
}

func newDateRange(from, to time.Time) dateRange {
	return dateRange{StartDate: newDatePortion(from), EndDate: newDatePortion(to)}
}

// micros renders value*factor as the integer string the platforms expect for
// *_micros fields.
func micros(value float64, factor float64) string {
	return fmt.Sprintf("%.0f", value*factor)
}

// parseAmount reads a numeric KPI value stored as a string; malformed input
// counts as zero, matching the loose arithmetic of the upstream payloads.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// xandrDateTime renders a flight boundary in the platform's local-midnight
// format.
func xandrDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02") + " 00:00:00"
}

// shortDate renders a flight boundary for display names, e.g. 05Aug24.
func shortDate(t time.Time) string {
	return t.UTC().Format("02Jan06")
}

func languageCode(language string) string {
	if language == "English" {
		return "EN"
	}
	return "FR"
}

// The game plan, insertion-order targeting and flight list are all optional on
// a draft campaign. The accessors below hand the mappers zero values when a
// section is absent so a sparse campaign maps instead of panicking.

func gamePlanOf(campaign *models.Campaign) models.GamePlanDetails {
	if campaign.GamePlan != nil {
		return *campaign.GamePlan
	}
	return models.GamePlanDetails{}
}

func ioTargetOf(campaign *models.Campaign) models.IOTarget {
	if campaign.IOTarget != nil {
		return *campaign.IOTarget
	}
	return models.IOTarget{}
}

func firstFlight(campaign *models.Campaign) models.Flight {
	if len(campaign.Flights) > 0 {
		return campaign.Flights[0]
	}
	return models.Flight{}
}

// platformBudget splits the plan budget evenly across the selected platforms.
func platformBudget(campaign *models.Campaign) float64 {
	if len(campaign.Platforms) == 0 {
		return 0
	}
	return gamePlanOf(campaign).Budget / float64(len(campaign.Platforms))
}
