package job

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/nanosynth/nanosynth/pkg/models"
)

// Synthesize fabricates a plausible result for a validated request. All
// numbers come from rng, so a fixed generator yields a fixed result.
func Synthesize(req models.JobRequest, rng *rand.Rand) (*models.JobResult, error) {
	res := &models.JobResult{Kind: req.Kind}
	switch req.Kind {
	case models.KindDesignGeneration:
		if req.Design == nil {
			return nil, errors.New("synthesize: design request is missing")
		}
		res.Design = synthesizeDesign(*req.Design, Key(req))
	case models.KindImageAnalysis:
		res.Image = synthesizeImage(rng)
	case models.KindStatisticalAnalysis:
		if req.File == nil {
			return nil, errors.New("synthesize: file is missing")
		}
		res.Statistical = synthesizeStatistics(req.File.Data, rng)
	case models.KindPIVAnalysis:
		res.PIV = synthesizePIV(rng)
	default:
		return nil, fmt.Errorf("synthesize: unknown job kind %q", req.Kind)
	}
	return res, nil
}

// --- Design generation ---

var designArtifacts = []struct {
	name, file, mediaType string
}{
	{"Device geometry (.CAD)", "device_geometry.cad", "application/octet-stream"},
	{"Simulation file (.java)", "simulation.java", "text/x-java-source"},
	{"Manufacturing parameters (.pdf)", "manufacturing_parameters.pdf", "application/pdf"},
}

func synthesizeDesign(d models.DesignRequest, key string) *models.DesignResult {
	method := strings.TrimSpace(d.Method)
	if m, ok := ResolveMethod(method); ok {
		method = m.Name
	}

	files := make([]models.Artifact, 0, len(designArtifacts))
	for _, a := range designArtifacts {
		files = append(files, models.Artifact{
			Name:      a.name,
			FileName:  a.file,
			URL:       "/artifacts/" + key + "/" + a.file,
			MediaType: a.mediaType,
		})
	}

	return &models.DesignResult{
		Method:   method,
		Kinetics: strings.TrimSpace(d.Kinetics),
		Files:    files,
	}
}

// --- Image analysis ---

var imageMetrics = []struct {
	name     string
	lo, hi   float64
	decimals int
}{
	{"Particle uniformity", 85, 95, 2},
	{"Mixing efficiency", 90, 98, 2},
	{"Flow stability", 88, 95, 2},
	{"Mean size (nm)", 45, 55, 1},
	{"Standard deviation", 5, 13, 2},
}

func synthesizeImage(rng *rand.Rand) *models.ImageResult {
	level := round(uniform(rng, 80, 95), 1)

	metrics := make([]models.Metric, 0, len(imageMetrics))
	for _, m := range imageMetrics {
		metrics = append(metrics, models.Metric{
			Name:  m.name,
			Value: round(uniform(rng, m.lo, m.hi), m.decimals),
		})
	}

	return &models.ImageResult{
		MixingLevel:        level,
		StatisticalMetrics: metrics,
		MixingProfile:      mixingProfile(level),
	}
}

// mixingProfile spreads the overall mixing level along the channel, rising
// from the inlet to the outlet.
func mixingProfile(level float64) []models.MixingRegion {
	return []models.MixingRegion{
		{Region: "Inlet", Level: round(math.Max(level-15, 60), 1), Spread: 12},
		{Region: "Mixer 1", Level: round(math.Max(level-8, 70), 1), Spread: 8},
		{Region: "Mixer 2", Level: round(math.Max(level-5, 75), 1), Spread: 15},
		{Region: "Confluence", Level: level, Spread: 5},
		{Region: "Outlet", Level: round(math.Min(level+3, 100), 1), Spread: 3},
	}
}

// --- Statistical analysis ---

var correlationPairs = []string{
	"Temperature vs Pressure",
	"Flow vs Concentration",
	"Time vs Efficiency",
}

func synthesizeStatistics(data []byte, rng *rand.Rand) *models.StatisticalResult {
	count, ok := countDataRows(data)
	if !ok {
		count = 200 + rng.IntN(1801)
	}

	mean := round(uniform(rng, 30, 60), 2)
	std := round(uniform(rng, 5, 20), 2)
	median := round(mean+uniform(rng, -0.2, 0.2)*std, 2)
	lo := round(mean-uniform(rng, 2, 3)*std, 2)
	hi := round(mean+uniform(rng, 2, 3.5)*std, 2)

	pValue := round(uniform(rng, 0.001, 0.2), 3)
	verdict := fmt.Sprintf("Normal (p=%.3f)", pValue)
	if pValue < 0.05 {
		verdict = fmt.Sprintf("Not normal (p=%.3f)", pValue)
	}

	stats := &models.StatisticalResult{
		BasicStats: models.BasicStats{
			Mean:     mean,
			Median:   median,
			Std:      std,
			Variance: round(std*std, 2),
			Min:      lo,
			Max:      hi,
			Count:    count,
		},
		Distribution: models.Distribution{
			Skewness:      round(uniform(rng, -1, 1), 2),
			Kurtosis:      round(uniform(rng, -1, 1), 2),
			NormalityTest: verdict,
		},
		Correlations: make([]models.Correlation, 0, len(correlationPairs)),
	}
	for _, pair := range correlationPairs {
		stats.Correlations = append(stats.Correlations, models.Correlation{
			Variables:   pair,
			Coefficient: round(uniform(rng, -1, 1), 2),
		})
	}
	return stats
}

// countDataRows counts the non-empty records of a CSV payload, skipping a
// leading header row. ok is false when the payload does not parse or holds
// no data rows.
func countDataRows(data []byte) (int, bool) {
	if len(data) == 0 {
		return 0, false
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	count := 0
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, false
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		count++
	}
	return count, count > 0
}

func isHeader(rec []string) bool {
	for _, field := range rec {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			return true
		}
	}
	return false
}

// --- PIV analysis ---

var gridSizes = []int{32, 64, 128}

func synthesizePIV(rng *rand.Rand) *models.PIVResult {
	n := gridSizes[rng.IntN(len(gridSizes))]
	vectors := n * n
	valid := int(float64(vectors) * uniform(rng, 0.9, 0.99))

	avg := uniform(rng, 0.5, 2)
	maxV := avg * uniform(rng, 1.5, 2.5)
	minV := avg * uniform(rng, 0.05, 0.2)

	reynolds := math.Round(uniform(rng, 50, 3000))

	return &models.PIVResult{
		VelocityField: models.VelocityField{
			MaxVelocity: round(maxV, 2),
			MinVelocity: round(minV, 2),
			AvgVelocity: round(avg, 2),
			Unit:        "m/s",
		},
		FlowCharacteristics: models.FlowCharacteristics{
			ReynoldsNumber:  reynolds,
			FlowRegime:      flowRegime(reynolds),
			VorticityMax:    round(uniform(rng, 10, 80), 1),
			StreamlineCount: 50 + rng.IntN(200),
		},
		SpatialAnalysis: models.SpatialAnalysis{
			GridResolution:      fmt.Sprintf("%dx%d", n, n),
			VectorCount:         vectors,
			ValidVectors:        valid,
			InterpolatedVectors: vectors - valid,
		},
		QualityMetrics: models.QualityMetrics{
			SignalToNoise:  round(uniform(rng, 5, 12), 1),
			PeakRatio:      round(uniform(rng, 1.2, 2.5), 1),
			ValidationRate: round(float64(valid)/float64(vectors)*100, 1),
		},
	}
}

func flowRegime(reynolds float64) string {
	switch {
	case reynolds < 2300:
		return "Laminar"
	case reynolds < 4000:
		return "Transitional"
	default:
		return "Turbulent"
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
