package job

import (
	"math/rand/v2"
	"time"

	"github.com/nanosynth/nanosynth/pkg/models"
)

const MiB = 1 << 20

// Profile holds the per-kind knobs of the simulated backend.
type Profile struct {
	LatencyMin       time.Duration
	LatencyMax       time.Duration
	FaultProbability float64
	FaultReason      Reason
	FaultMessage     string
	// MaxUploadBytes is the size ceiling for file-based kinds; zero means no file input.
	MaxUploadBytes int64
}

// Profiles is the configuration table keyed by job kind.
type Profiles map[models.JobKind]Profile

// DefaultProfiles returns the stock latency, failure and size settings.
// Statistical and PIV analysis never fail unless a probability is
// configured.
func DefaultProfiles() Profiles {
	return Profiles{
		models.KindDesignGeneration: {
			LatencyMin:       1500 * time.Millisecond,
			LatencyMax:       1500 * time.Millisecond,
			FaultProbability: 0.05,
			FaultReason:      ReasonTransportFailure,
			FaultMessage:     "Connection to the design server failed. Please try again.",
		},
		models.KindImageAnalysis: {
			LatencyMin:       2500 * time.Millisecond,
			LatencyMax:       2500 * time.Millisecond,
			FaultProbability: 0.03,
			FaultReason:      ReasonProcessingFailure,
			FaultMessage:     "Image processing failed. Check the file format.",
			MaxUploadBytes:   50 * MiB,
		},
		models.KindStatisticalAnalysis: {
			LatencyMin:     3 * time.Second,
			LatencyMax:     3 * time.Second,
			FaultReason:    ReasonProcessingFailure,
			FaultMessage:   "Statistical analysis failed. Check the data format.",
			MaxUploadBytes: 50 * MiB,
		},
		models.KindPIVAnalysis: {
			LatencyMin:     4 * time.Second,
			LatencyMax:     4 * time.Second,
			FaultReason:    ReasonProcessingFailure,
			FaultMessage:   "PIV analysis failed. Check the matrix format.",
			MaxUploadBytes: 100 * MiB,
		},
	}
}

// Clone returns a copy that can be modified without touching p.
func (p Profiles) Clone() Profiles {
	out := make(Profiles, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// drawLatency picks a delay uniformly from [LatencyMin, LatencyMax].
// The generator is only consulted when the range is not fixed.
func (p Profile) drawLatency(rng *rand.Rand) time.Duration {
	if p.LatencyMax <= p.LatencyMin {
		return p.LatencyMin
	}
	span := int64(p.LatencyMax - p.LatencyMin)
	return p.LatencyMin + time.Duration(rng.Int64N(span+1))
}
