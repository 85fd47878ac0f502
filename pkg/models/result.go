package models

// JobResult mirrors JobRequest: Kind plus exactly one populated payload.
// A result is never partially populated.
type JobResult struct {
	Kind        JobKind            `json:"kind"`
	Design      *DesignResult      `json:"design,omitempty"`
	Image       *ImageResult       `json:"image,omitempty"`
	Statistical *StatisticalResult `json:"statistical,omitempty"`
	PIV         *PIVResult         `json:"piv,omitempty"`
}

// Artifact describes one generated design file.
type Artifact struct {
	Name      string `json:"name"`
	FileName  string `json:"file_name"`
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
}

// DesignResult is the output of a design generation job.
type DesignResult struct {
	Method   string     `json:"method"`
	Kinetics string     `json:"kinetics"`
	Files    []Artifact `json:"files"`
}

// Metric is a named numeric measurement.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MixingRegion is the mixing level observed in one region of the channel.
type MixingRegion struct {
	Region string  `json:"region"`
	Level  float64 `json:"level"`
	Spread float64 `json:"spread"`
}

// ImageResult is the output of a microscopy image analysis job.
type ImageResult struct {
	MixingLevel        float64        `json:"mixing_level"`
	StatisticalMetrics []Metric       `json:"statistical_metrics"`
	MixingProfile      []MixingRegion `json:"mixing_profile"`
}

// BasicStats holds descriptive statistics of a data set.
type BasicStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int     `json:"count"`
}

// Distribution describes the shape of a data set.
type Distribution struct {
	Skewness      float64 `json:"skewness"`
	Kurtosis      float64 `json:"kurtosis"`
	NormalityTest string  `json:"normality_test"`
}

// Correlation is the coefficient between a pair of variables, in [-1, 1].
type Correlation struct {
	Variables   string  `json:"variables"`
	Coefficient float64 `json:"coefficient"`
}

// StatisticalResult is the output of a statistical analysis job.
type StatisticalResult struct {
	BasicStats   BasicStats    `json:"basic_stats"`
	Distribution Distribution  `json:"distribution"`
	Correlations []Correlation `json:"correlations"`
}

type VelocityField struct {
	MaxVelocity float64 `json:"max_velocity"`
	MinVelocity float64 `json:"min_velocity"`
	AvgVelocity float64 `json:"avg_velocity"`
	Unit        string  `json:"unit"`
}

type FlowCharacteristics struct {
	ReynoldsNumber  float64 `json:"reynolds_number"`
	FlowRegime      string  `json:"flow_regime"`
	VorticityMax    float64 `json:"vorticity_max"`
	StreamlineCount int     `json:"streamline_count"`
}

type SpatialAnalysis struct {
	GridResolution      string `json:"grid_resolution"`
	VectorCount         int    `json:"vector_count"`
	ValidVectors        int    `json:"valid_vectors"`
	InterpolatedVectors int    `json:"interpolated_vectors"`
}

type QualityMetrics struct {
	SignalToNoise  float64 `json:"signal_to_noise"`
	PeakRatio      float64 `json:"peak_ratio"`
	ValidationRate float64 `json:"validation_rate"`
}

// PIVResult is the output of a particle image velocimetry job.
type PIVResult struct {
	VelocityField       VelocityField       `json:"velocity_field"`
	FlowCharacteristics FlowCharacteristics `json:"flow_characteristics"`
	SpatialAnalysis     SpatialAnalysis     `json:"spatial_analysis"`
	QualityMetrics      QualityMetrics      `json:"quality_metrics"`
}
