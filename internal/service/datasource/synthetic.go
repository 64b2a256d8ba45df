package datasource

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
)

const (
	basePrice = 100.0
	stepSigma = 0.02
	minPoints = 2
	maxPoints = 100000
)

// Synthetic implements DataSource with a deterministic random walk. The walk
// is seeded from the reference string, so the same (ref, asOf, length) always
// yields the same series. Useful for development and as the default backend.
type Synthetic struct {
	length int
}

func NewSynthetic(length int) *Synthetic {
	if length < minPoints {
		length = minPoints
	}
	if length > maxPoints {
		length = maxPoints
	}
	return &Synthetic{length: length}
}

func (s *Synthetic) Fetch(ctx context.Context, ref string, asOf time.Time) (models.TimeSeries, string, error) {
	if err := ctx.Err(); err != nil {
		return models.TimeSeries{}, "", err
	}

	symbol, tf := domrepo.ParseRef(ref)
	sourceID := fmt.Sprintf("synthetic:%s:%s", symbol, tf)
	step := tf.Duration()
	last := asOf.Truncate(step)

	rng := rand.New(rand.NewSource(seed(ref)))
	points := make([]models.Point, s.length)
	price := basePrice
	for i := range points {
		price *= 1 + rng.NormFloat64()*stepSigma
		points[i] = models.Point{
			TS:    last.Add(-time.Duration(s.length-1-i) * step),
			Value: price,
		}
	}
	return models.TimeSeries{Ref: ref, Points: points}, sourceID, nil
}

func seed(ref string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ref))
	return int64(h.Sum64())
}

var _ domrepo.DataSource = (*Synthetic)(nil)
