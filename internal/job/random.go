package job

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/nanosynth/nanosynth/pkg/models"
)

// Randomness hands out one generator per submission. Generators are never
// shared, so concurrent submissions do not interfere.
type Randomness interface {
	ForRequest(req models.JobRequest) *rand.Rand
}

// Seeded derives each generator from Seed and the request digest, making
// every draw reproducible for identical input.
type Seeded struct {
	Seed uint64
}

func (s Seeded) ForRequest(req models.JobRequest) *rand.Rand {
	return rand.New(rand.NewPCG(s.Seed, Digest(req)))
}

// Runtime seeds each generator from fresh entropy.
type Runtime struct{}

func (Runtime) ForRequest(models.JobRequest) *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewRandomness returns Seeded for a non-zero seed and Runtime otherwise.
func NewRandomness(seed uint64) Randomness {
	if seed == 0 {
		return Runtime{}
	}
	return Seeded{Seed: seed}
}

// Digest is an FNV-64a hash over every input field of req.
func Digest(req models.JobRequest) uint64 {
	h := fnv.New64a()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(string(req.Kind))
	if req.Design != nil {
		write(req.Design.Method)
		write(req.Design.Kinetics)
	}
	if req.File != nil {
		write(req.File.Name)
		write(req.File.MediaType)
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(req.File.Size()))
		h.Write(size[:])
		h.Write(req.File.Data)
	}
	return h.Sum64()
}

// Key renders the request digest as a short identifier for logs and
// artifact locations.
func Key(req models.JobRequest) string {
	return fmt.Sprintf("%016x", Digest(req))
}
