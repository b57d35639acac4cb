package trends

import (
	"math"
	"testing"
	"time"

	"roomsense/internal/models"
)

func window() (time.Time, time.Time) {
	return time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)
}

func TestEnergySummaryBandAdditivity(t *testing.T) {
	from, to := window()
	readings := []models.Reading{
		reading("9", 1500, "2025-09-16T09:00:00Z"),
		reading("9", 2500, "2025-09-16T14:30:00Z"),
		reading("9", 800, "2025-09-16T23:30:00Z"),
		reading("9", 1200, "2025-09-16T03:00:00Z"),
	}

	summary := EnergySummary(readings, from, to, Tariff{PricePerKwh: 0.3})
	if diff := math.Abs(summary.Day.EnergyKwh + summary.Night.EnergyKwh - summary.EnergyKwh); diff > 0.011 {
		t.Fatalf("band energies do not add up: day=%v night=%v total=%v",
			summary.Day.EnergyKwh, summary.Night.EnergyKwh, summary.EnergyKwh)
	}
	if summary.EnergyKwh != 6.0 {
		t.Fatalf("expected 6.0 kWh, got %v", summary.EnergyKwh)
	}
	if summary.Cost != 1.8 {
		t.Fatalf("expected cost 1.80, got %v", summary.Cost)
	}
}

func TestEnergySummaryBandedTariff(t *testing.T) {
	from, to := window()
	readings := []models.Reading{
		reading("9", 1000, "2025-09-16T12:00:00Z"),
		reading("9", 1000, "2025-09-16T02:00:00Z"),
	}

	summary := EnergySummary(readings, from, to, Tariff{
		DayPricePerKwh:   0.4,
		NightPricePerKwh: 0.1,
	})
	if summary.Day.Cost != 0.4 || summary.Night.Cost != 0.1 {
		t.Fatalf("unexpected band costs: %+v", summary)
	}
	if summary.Cost != 0.5 {
		t.Fatalf("expected combined cost 0.50, got %v", summary.Cost)
	}
}

func TestEnergySummaryBandBoundariesInConfiguredZone(t *testing.T) {
	from, to := window()
	// 07:59 UTC is night, 08:00 UTC is day under a UTC tariff.
	readings := []models.Reading{
		reading("9", 1000, "2025-09-16T07:59:00Z"),
		reading("9", 1000, "2025-09-16T08:00:00Z"),
	}

	utc := EnergySummary(readings, from, to, Tariff{DayPricePerKwh: 1, NightPricePerKwh: 1})
	if utc.Day.EnergyKwh != 1.0 || utc.Night.EnergyKwh != 1.0 {
		t.Fatalf("unexpected UTC band split: %+v", utc)
	}

	// Shifted one hour east, both readings land in the day band.
	east := time.FixedZone("east", 3600)
	shifted := EnergySummary(readings, from, to, Tariff{DayPricePerKwh: 1, NightPricePerKwh: 1, Location: east})
	if shifted.Day.EnergyKwh != 2.0 || shifted.Night.EnergyKwh != 0.0 {
		t.Fatalf("expected timezone to move band boundary: %+v", shifted)
	}
}

func TestEnergySummarySavingKeepsSign(t *testing.T) {
	from := time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	tariff := Tariff{PricePerKwh: 1}

	// Previous window cost 100, current 80: saving is +20.
	cheaper := []models.Reading{
		reading("9", 100000, "2025-09-15T12:00:00Z"),
		reading("9", 80000, "2025-09-16T12:00:00Z"),
	}
	summary := EnergySummaryWithSaving(cheaper, from, to, tariff)
	if summary.Saving != 20 {
		t.Fatalf("expected saving 20, got %v", summary.Saving)
	}

	// Previous 80, current 100: saving is -20, never clamped to zero.
	pricier := []models.Reading{
		reading("9", 80000, "2025-09-15T12:00:00Z"),
		reading("9", 100000, "2025-09-16T12:00:00Z"),
	}
	summary = EnergySummaryWithSaving(pricier, from, to, tariff)
	if summary.Saving != -20 {
		t.Fatalf("expected saving -20, got %v", summary.Saving)
	}
}

func TestEnergySummaryEmptyWindow(t *testing.T) {
	from, to := window()
	summary := EnergySummaryWithSaving(nil, from, to, Tariff{PricePerKwh: 0.3})
	if summary.EnergyKwh != 0 || summary.Cost != 0 || summary.Saving != 0 {
		t.Fatalf("expected all-zero summary, got %+v", summary)
	}
	if summary.Day.Cost != 0 || summary.Night.Cost != 0 {
		t.Fatalf("expected zero bands, got %+v", summary)
	}
}

func TestEnergySummaryWindowBoundsAreHalfOpen(t *testing.T) {
	from, to := window()
	readings := []models.Reading{
		reading("9", 1000, "2025-09-16T00:00:00Z"),
		reading("9", 1000, "2025-09-17T00:00:00Z"),
		reading("9", 1000, "2025-09-15T23:59:59Z"),
	}

	summary := EnergySummary(readings, from, to, Tariff{PricePerKwh: 1})
	if summary.EnergyKwh != 1.0 {
		t.Fatalf("expected only the in-window reading counted, got %v kWh", summary.EnergyKwh)
	}
}
