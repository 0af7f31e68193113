package domain

import "math"

// InstrumentInfo carries broker-specific contract metadata used to convert
// price distances into money and to clamp volumes. Pip/contract conversion
// varies per broker and instrument, so it is looked up, never hard-coded.
type InstrumentInfo struct {
	Symbol       string
	Point        float64 // minimal price increment (e.g. 0.00001 for EURUSD)
	PipValue     float64 // account-currency value of one point per 1.0 lot
	MinLot       float64
	MaxLot       float64
	LotStep      float64
	MarginPerLot float64 // required margin per 1.0 lot
}

// MoneyAtRisk converts a price distance into account currency for the given
// volume.
func (i InstrumentInfo) MoneyAtRisk(priceDistance, volume float64) float64 {
	if i.Point == 0 {
		return 0
	}
	return (priceDistance / i.Point) * i.PipValue * volume
}

// quantizeEps absorbs binary-float noise when snapping to broker increments:
// a value one ulp short of a step boundary still counts as on it.
const quantizeEps = 1e-9

// ClampVolume restricts v to [MinLot, MaxLot] and rounds it down to LotStep.
func (i InstrumentInfo) ClampVolume(v float64) float64 {
	if i.LotStep > 0 {
		v = math.Floor(v/i.LotStep+quantizeEps) * i.LotStep
	}
	if v < i.MinLot {
		v = i.MinLot
	}
	if i.MaxLot > 0 && v > i.MaxLot {
		v = i.MaxLot
	}
	return v
}

// MarginRequired returns the margin the broker demands for the given volume.
func (i InstrumentInfo) MarginRequired(volume float64) float64 {
	return volume * i.MarginPerLot
}
