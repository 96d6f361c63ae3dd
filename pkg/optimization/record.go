// Package optimization provides shared data structures for optimization results.
package optimization

import "time"

// Record captures the outcome of a single completed optimization run.
type Record struct {
	ID             string    `json:"id" msgpack:"id"`
	Pattern        string    `json:"pattern" msgpack:"pattern"`
	Variant        string    `json:"variant" msgpack:"variant"`
	Method         string    `json:"method" msgpack:"method"`
	InitialWeights []float64 `json:"initialWeights" msgpack:"initial_weights"`
	FinalWeights   []float64 `json:"finalWeights" msgpack:"final_weights"`
	InitialCG      float64   `json:"initialCG" msgpack:"initial_cg"`
	FinalCG        float64   `json:"finalCG" msgpack:"final_cg"`
	ElapsedMs      float64   `json:"elapsedMs" msgpack:"elapsed_ms"`
	ViolationCount int       `json:"violationCount" msgpack:"violation_count"`
	Success        bool      `json:"success" msgpack:"success"`
	FuelWeight     float64   `json:"fuelWeight,omitempty" msgpack:"fuel_weight"`
	TotalWeight    float64   `json:"totalWeight" msgpack:"total_weight"`
	CGImprovement  float64   `json:"cgImprovement" msgpack:"cg_improvement"`
	CreatedAt      time.Time `json:"createdAt" msgpack:"created_at"`
}

// CGDeviation returns the absolute CG change achieved by the run.
func (r Record) CGDeviation() float64 {
	if r.FinalCG >= r.InitialCG {
		return r.FinalCG - r.InitialCG
	}
	return r.InitialCG - r.FinalCG
}
