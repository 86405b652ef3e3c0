// pkg/api/pairs_v1.go
package api

// PairV1 is the stable JSONL schema for one coincidence row.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type PairV1 struct {
	ChannelA       int64 `json:"channel_a"`
	ChannelB       int64 `json:"channel_b"`
	EnergyA        int64 `json:"energy_a"`
	EnergyB        int64 `json:"energy_b"`
	TimeDifference int64 `json:"time_difference"` // t_b - t_a, in timestamp units
}

// CalibratedPairV1 extends PairV1 with calibrated energies (keV).
type CalibratedPairV1 struct {
	PairV1
	EnergyACal float64 `json:"energy_a_cal"`
	EnergyBCal float64 `json:"energy_b_cal"`
}
