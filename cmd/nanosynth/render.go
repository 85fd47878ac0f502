package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nanosynth/nanosynth/pkg/models"
	"github.com/olekukonko/tablewriter"
)

// renderTable prints a result as one or more tables, one per result section.
func renderTable(w io.Writer, r *models.JobResult) {
	switch r.Kind {
	case models.KindDesignGeneration:
		renderDesign(w, r.Design)
	case models.KindImageAnalysis:
		renderImage(w, r.Image)
	case models.KindStatisticalAnalysis:
		renderStatistics(w, r.Statistical)
	case models.KindPIVAnalysis:
		renderPIV(w, r.PIV)
	}
}

func renderDesign(w io.Writer, d *models.DesignResult) {
	fmt.Fprintf(w, "\n=== Design ===\nMethod:   %s\nKinetics: %s\n\n", d.Method, d.Kinetics)

	table := tablewriter.NewWriter(w)
	table.Header("File", "Name", "Media type", "URL")
	for _, f := range d.Files {
		table.Append(f.Name, f.FileName, f.MediaType, f.URL)
	}
	table.Render()
}

func renderImage(w io.Writer, img *models.ImageResult) {
	fmt.Fprintf(w, "\n=== Mixing analysis ===\nMixing level: %.1f%%\n\n", img.MixingLevel)

	metrics := tablewriter.NewWriter(w)
	metrics.Header("Metric", "Value")
	for _, m := range img.StatisticalMetrics {
		metrics.Append(m.Name, num(m.Value))
	}
	metrics.Render()

	fmt.Fprintln(w, "\n=== Mixing profile ===")
	profile := tablewriter.NewWriter(w)
	profile.Header("Region", "Level (%)", "Spread")
	for _, p := range img.MixingProfile {
		profile.Append(p.Region, num(p.Level), num(p.Spread))
	}
	profile.Render()
}

func renderStatistics(w io.Writer, s *models.StatisticalResult) {
	fmt.Fprintln(w, "\n=== Basic statistics ===")
	basic := tablewriter.NewWriter(w)
	basic.Header("Statistic", "Value")
	basic.Append("Mean", num(s.BasicStats.Mean))
	basic.Append("Median", num(s.BasicStats.Median))
	basic.Append("Std", num(s.BasicStats.Std))
	basic.Append("Variance", num(s.BasicStats.Variance))
	basic.Append("Min", num(s.BasicStats.Min))
	basic.Append("Max", num(s.BasicStats.Max))
	basic.Append("Count", strconv.Itoa(s.BasicStats.Count))
	basic.Render()

	fmt.Fprintf(w, "\nSkewness: %s  Kurtosis: %s  Normality: %s\n",
		num(s.Distribution.Skewness), num(s.Distribution.Kurtosis), s.Distribution.NormalityTest)

	fmt.Fprintln(w, "\n=== Correlations ===")
	corr := tablewriter.NewWriter(w)
	corr.Header("Variables", "Coefficient")
	for _, c := range s.Correlations {
		corr.Append(c.Variables, num(c.Coefficient))
	}
	corr.Render()
}

func renderPIV(w io.Writer, p *models.PIVResult) {
	fmt.Fprintln(w, "\n=== PIV analysis ===")
	table := tablewriter.NewWriter(w)
	table.Header("Section", "Measure", "Value")
	table.Append("Velocity", "Max", num(p.VelocityField.MaxVelocity)+" "+p.VelocityField.Unit)
	table.Append("Velocity", "Avg", num(p.VelocityField.AvgVelocity)+" "+p.VelocityField.Unit)
	table.Append("Velocity", "Min", num(p.VelocityField.MinVelocity)+" "+p.VelocityField.Unit)
	table.Append("Flow", "Reynolds number", num(p.FlowCharacteristics.ReynoldsNumber))
	table.Append("Flow", "Regime", p.FlowCharacteristics.FlowRegime)
	table.Append("Flow", "Max vorticity", num(p.FlowCharacteristics.VorticityMax))
	table.Append("Flow", "Streamlines", strconv.Itoa(p.FlowCharacteristics.StreamlineCount))
	table.Append("Grid", "Resolution", p.SpatialAnalysis.GridResolution)
	table.Append("Grid", "Vectors", strconv.Itoa(p.SpatialAnalysis.VectorCount))
	table.Append("Grid", "Valid", strconv.Itoa(p.SpatialAnalysis.ValidVectors))
	table.Append("Grid", "Interpolated", strconv.Itoa(p.SpatialAnalysis.InterpolatedVectors))
	table.Append("Quality", "SNR", num(p.QualityMetrics.SignalToNoise))
	table.Append("Quality", "Peak ratio", num(p.QualityMetrics.PeakRatio))
	table.Append("Quality", "Validation rate (%)", num(p.QualityMetrics.ValidationRate))
	table.Render()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
