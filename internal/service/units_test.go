package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitRoundTrip(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{0, 1, 70, 1000, 0.001} {
		assert.InDelta(t, x, service.LbToKg(service.KgToLb(x)), 1e-9, "lb round trip for %v", x)
		assert.InDelta(t, x, service.OuncesToGrams(service.GramsToOunces(x)), 1e-9, "oz round trip for %v", x)
	}
}

func TestKnownConversions(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 154.3234, service.KgToLb(70), 1e-4)
	assert.InDelta(t, 3.5274, service.GramsToOunces(100), 1e-4)
}

func TestConvertMass(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Desc    string
		Value   float64
		From    string
		To      string
		Want    float64
		WantErr bool
	}{
		{Desc: "kg to g", Value: 1.5, From: "kg", To: "g", Want: 1500},
		{Desc: "lb to kg", Value: 2.20462, From: "lb", To: "kg", Want: 1},
		{Desc: "oz to g", Value: 1, From: "OZ", To: "g", Want: 28.3495},
		{Desc: "same unit", Value: 42, From: "g", To: "g", Want: 42},
		{Desc: "unknown unit", Value: 1, From: "stone", To: "kg", WantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			got, err := service.ConvertMass(tc.Value, tc.From, tc.To)
			if tc.WantErr {
				require.ErrorIs(t, err, model.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.Want, got, 1e-6)
		})
	}
}

func TestWeightToKg(t *testing.T) {
	t.Parallel()
	kg, err := service.WeightToKg(176.37, "lb")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, kg, 0.01)

	_, err = service.WeightToKg(-1, "kg")
	require.ErrorIs(t, err, model.ErrInvalid)

	_, err = service.WeightToKg(70, "st")
	require.ErrorIs(t, err, model.ErrInvalid)

	lb, err := service.WeightFromKg(80, "lbs")
	require.NoError(t, err)
	assert.InDelta(t, 176.3696, lb, 1e-4)
}

func TestDayIDSameCalendarDay(t *testing.T) {
	t.Parallel()
	morning := time.Date(2024, 3, 10, 0, 0, 1, 0, time.Local)
	night := time.Date(2024, 3, 10, 23, 59, 59, 0, time.Local)
	next := time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local)

	assert.Equal(t, "2024-03-10", service.DayID(morning))
	assert.Equal(t, service.DayID(morning), service.DayID(night))
	assert.NotEqual(t, service.DayID(night), service.DayID(next))
}

func TestParseDayID(t *testing.T) {
	t.Parallel()
	d, err := service.ParseDayID(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", service.DayID(d))
	assert.Equal(t, 0, d.Hour())

	_, err = service.ParseDayID("2024-02-30")
	require.ErrorIs(t, err, model.ErrInvalid)
}

func TestAddDaysKeepsCalendarAcrossMonths(t *testing.T) {
	t.Parallel()
	d := time.Date(2024, 2, 28, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-03-01", service.DayID(service.AddDays(d, 2)))
	assert.Equal(t, "2024-02-21", service.DayID(service.AddDays(d, -7)))
}
