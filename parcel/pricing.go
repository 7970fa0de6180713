package parcel

// Tariff constants for the client-side charge estimate. The estimate is
// advisory only; the backend computes the binding delivery charge.
const (
	// BaseCharge is the flat fee covering the first kilogram.
	BaseCharge = 150
	// SurchargePerKg applies to every kilogram above IncludedWeightKg.
	SurchargePerKg = 100
	// IncludedWeightKg is the weight covered by the base charge alone.
	IncludedWeightKg = 1
)

// EstimateCharge returns the advisory delivery charge for the given weight
// in kilograms: base fee plus a per-kilogram surcharge on the weight above
// the included first kilogram. A non-positive weight estimates zero, since
// there is nothing to quote.
func EstimateCharge(weightKg float64) float64 {
	if weightKg <= 0 {
		return 0
	}
	extra := weightKg - IncludedWeightKg
	if extra < 0 {
		extra = 0
	}
	return BaseCharge + extra*SurchargePerKg
}
