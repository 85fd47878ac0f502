// Package models contains shared data models used across the NanoSynth codebase.
package models

// JobKind identifies which generation or analysis workflow a job runs.
type JobKind string

const (
	KindDesignGeneration    JobKind = "design_generation"
	KindImageAnalysis       JobKind = "image_analysis"
	KindStatisticalAnalysis JobKind = "statistical_analysis"
	KindPIVAnalysis         JobKind = "piv_analysis"
)

// AllKinds lists every job kind in a stable order.
var AllKinds = []JobKind{
	KindDesignGeneration,
	KindImageAnalysis,
	KindStatisticalAnalysis,
	KindPIVAnalysis,
}

// Valid reports whether k is one of the known job kinds.
func (k JobKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TakesFile reports whether the kind's input is an uploaded file.
func (k JobKind) TakesFile() bool {
	return k == KindImageAnalysis || k == KindStatisticalAnalysis || k == KindPIVAnalysis
}
