package trends

import (
	"math"
	"time"

	"roomsense/internal/models"
)

const (
	dayBandStartHour = 8
	dayBandEndHour   = 23
)

// Tariff holds electricity pricing. When day/night prices are set the cost is
// split into tariff bands; otherwise the flat price applies. Band hours are
// evaluated in Location, never in the server's local zone.
type Tariff struct {
	PricePerKwh      float64
	DayPricePerKwh   float64
	NightPricePerKwh float64
	Location         *time.Location
}

// Banded reports whether day/night pricing is configured.
func (t Tariff) Banded() bool {
	return t.DayPricePerKwh > 0 && t.NightPricePerKwh > 0
}

func (t Tariff) location() *time.Location {
	if t.Location != nil {
		return t.Location
	}
	return time.UTC
}

// BandTotals is the energy and cost of one tariff band.
type BandTotals struct {
	EnergyKwh float64 `json:"energy_kwh"`
	Cost      float64 `json:"cost"`
}

// PeriodSummary is derived electricity usage for one window. Saving keeps its
// sign: a negative saving means cost went up, which is a valid result.
type PeriodSummary struct {
	EnergyKwh float64    `json:"energy_kwh"`
	Cost      float64    `json:"cost"`
	Saving    float64    `json:"saving"`
	Day       BandTotals `json:"day"`
	Night     BandTotals `json:"night"`
}

// EnergySummary sums power readings (watt-equivalents) falling in [from, to)
// into kWh and derives cost. An empty window yields an all-zero summary,
// never an error: absent telemetry is a normal state.
func EnergySummary(readings []models.Reading, from, to time.Time, tariff Tariff) PeriodSummary {
	loc := tariff.location()

	var dayWh, nightWh float64
	for _, r := range readings {
		if r.Timestamp.Before(from) || !r.Timestamp.Before(to) {
			continue
		}
		if inDayBand(r.Timestamp.In(loc).Hour()) {
			dayWh += r.Value
		} else {
			nightWh += r.Value
		}
	}

	summary := PeriodSummary{
		EnergyKwh: round2((dayWh + nightWh) / 1000),
		Day:       BandTotals{EnergyKwh: round2(dayWh / 1000)},
		Night:     BandTotals{EnergyKwh: round2(nightWh / 1000)},
	}

	if tariff.Banded() {
		summary.Day.Cost = round2(summary.Day.EnergyKwh * tariff.DayPricePerKwh)
		summary.Night.Cost = round2(summary.Night.EnergyKwh * tariff.NightPricePerKwh)
		summary.Cost = round2(summary.Day.Cost + summary.Night.Cost)
	} else {
		summary.Day.Cost = round2(summary.Day.EnergyKwh * tariff.PricePerKwh)
		summary.Night.Cost = round2(summary.Night.EnergyKwh * tariff.PricePerKwh)
		summary.Cost = round2(summary.EnergyKwh * tariff.PricePerKwh)
	}
	return summary
}

// EnergySummaryWithSaving additionally computes the saving against the
// immediately preceding equal-length window by re-running the same windowed
// sum. Saving = previous cost − current cost, sign preserved.
func EnergySummaryWithSaving(readings []models.Reading, from, to time.Time, tariff Tariff) PeriodSummary {
	current := EnergySummary(readings, from, to, tariff)
	previous := EnergySummary(readings, from.Add(-to.Sub(from)), from, tariff)
	current.Saving = round2(previous.Cost - current.Cost)
	return current
}

// inDayBand reports whether a local hour falls in the 08:00–23:00 day band;
// 23:00–08:00 is the night band.
func inDayBand(hour int) bool {
	return hour >= dayBandStartHour && hour < dayBandEndHour
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
