// Package factorization implements explicit-feedback matrix factorization with
// Alternating Least Squares. Ratings are centered on the global mean and each
// row is solved in closed form with weighted-lambda regularization.
package factorization

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/recomodel/internal/domain/model"
	"github.com/okian/recomodel/internal/domain/rating"
)

// Default factorization parameters.
const (
	defaultFactors        = 10
	defaultIterations     = 15
	defaultRegularization = 0.1
	defaultWorkers        = 4
	defaultSeed           = 42
	initScale             = 0.1
	choleskyFloor         = 1e-10
)

// Option applies a configuration option to the ALS model.
type Option func(*ALS)

// WithFactors sets the latent dimension.
func WithFactors(n int) Option {
	return func(a *ALS) {
		if n > 0 {
			a.factors = n
		}
	}
}

// WithIterations sets the number of alternating sweeps.
func WithIterations(n int) Option {
	return func(a *ALS) {
		if n > 0 {
			a.iterations = n
		}
	}
}

// WithRegularization sets the L2 lambda.
func WithRegularization(lambda float64) Option {
	return func(a *ALS) {
		if lambda >= 0 && !math.IsNaN(lambda) {
			a.lambda = lambda
		}
	}
}

// WithWorkers sets how many goroutines solve rows in parallel.
func WithWorkers(n int) Option {
	return func(a *ALS) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithSeed fixes the factor initialization.
func WithSeed(seed int64) Option {
	return func(a *ALS) {
		a.seed = seed
	}
}

// ALS is a trained (or trainable) factorization of the rating matrix.
type ALS struct {
	mu sync.RWMutex

	factors    int
	iterations int
	lambda     float64
	workers    int
	seed       int64

	trained bool

	// X is the actor factor matrix (actors x factors), Y the item matrix.
	X [][]float64
	Y [][]float64

	actorIndex map[string]int
	itemIndex  map[string]int
	actors     []string
	items      []string

	// rated[u] lists item rows actor u rated, sorted.
	rated [][]int

	mean      float64
	ratingMin float64
	ratingMax float64
	nRatings  int
}

// New creates an untrained ALS model.
func New(opts ...Option) *ALS {
	a := &ALS{
		factors:    defaultFactors,
		iterations: defaultIterations,
		lambda:     defaultRegularization,
		workers:    defaultWorkers,
		seed:       defaultSeed,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type entry struct {
	row int
	r   float64
}

// Fit trains on the given ratings, replacing any previous state.
func (a *ALS) Fit(ctx context.Context, records []rating.Record) error {
	if len(records) == 0 {
		return ErrEmptyRatings
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.trained = false
	a.actorIndex = make(map[string]int)
	a.itemIndex = make(map[string]int)
	a.actors = nil
	a.items = nil

	sum := 0.0
	a.ratingMin = math.Inf(1)
	a.ratingMax = math.Inf(-1)
	for _, rec := range records {
		if _, ok := a.actorIndex[rec.ActorID]; !ok {
			a.actorIndex[rec.ActorID] = len(a.actors)
			a.actors = append(a.actors, rec.ActorID)
		}
		if _, ok := a.itemIndex[rec.ItemID]; !ok {
			a.itemIndex[rec.ItemID] = len(a.items)
			a.items = append(a.items, rec.ItemID)
		}
		sum += rec.Rating
		a.ratingMin = math.Min(a.ratingMin, rec.Rating)
		a.ratingMax = math.Max(a.ratingMax, rec.Rating)
	}
	a.nRatings = len(records)
	a.mean = sum / float64(len(records))

	// Sparse residuals in both directions.
	byActor := make([][]entry, len(a.actors))
	byItem := make([][]entry, len(a.items))
	for _, rec := range records {
		u := a.actorIndex[rec.ActorID]
		i := a.itemIndex[rec.ItemID]
		byActor[u] = append(byActor[u], entry{row: i, r: rec.Rating - a.mean})
		byItem[i] = append(byItem[i], entry{row: u, r: rec.Rating - a.mean})
	}

	a.rated = make([][]int, len(a.actors))
	for u, es := range byActor {
		rows := make([]int, len(es))
		for j, e := range es {
			rows[j] = e.row
		}
		sort.Ints(rows)
		a.rated[u] = rows
	}

	rng := rand.New(rand.NewSource(a.seed)) //nolint:gosec // deterministic init
	a.X = randomMatrix(rng, len(a.actors), a.factors)
	a.Y = randomMatrix(rng, len(a.items), a.factors)

	for iter := 0; iter < a.iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.sweep(ctx, a.X, a.Y, byActor); err != nil {
			return err
		}
		if err := a.sweep(ctx, a.Y, a.X, byItem); err != nil {
			return err
		}
	}

	a.trained = true
	return nil
}

// sweep re-solves every row of target with fixed held, chunked across workers.
func (a *ALS) sweep(ctx context.Context, target, held [][]float64, obs [][]entry) error {
	n := len(target)
	chunk := (n + a.workers - 1) / a.workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < a.workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}
		g.Go(func() error {
			for row := start; row < end; row++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				target[row] = a.solveRow(held, obs[row])
			}
			return nil
		})
	}
	return g.Wait()
}

// solveRow computes (H'H + lambda*n*I)^-1 H'r over the observed entries.
func (a *ALS) solveRow(held [][]float64, obs []entry) []float64 {
	k := a.factors
	A := make([][]float64, k) //nolint:gocritic // linear algebra notation
	for f := range A {
		A[f] = make([]float64, k)
	}
	b := make([]float64, k)

	for _, e := range obs {
		h := held[e.row]
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				A[f1][f2] += h[f1] * h[f2]
			}
			b[f1] += e.r * h[f1]
		}
	}
	reg := a.lambda * float64(max(len(obs), 1))
	for f1 := 0; f1 < k; f1++ {
		A[f1][f1] += reg
		for f2 := f1 + 1; f2 < k; f2++ {
			A[f2][f1] = A[f1][f2]
		}
	}
	return solveLinearSystem(A, b)
}

func randomMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
		for c := range m[r] {
			m[r][c] = initScale * (rng.Float64() - 0.5)
		}
	}
	return m
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = choleskyFloor
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// L * z = b
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		z[i] = sum / L[i][i]
	}

	// L' * x = z
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		x[i] = sum / L[i][i]
	}
	return x
}

// Predict returns up to k items for the actor, best first. Unknown actors
// get an empty list.
func (a *ALS) Predict(actorID string, excludeRated bool, k int) ([]model.Recommendation, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.trained {
		return nil, ErrNotTrained
	}
	if k <= 0 {
		return []model.Recommendation{}, nil
	}

	u, ok := a.actorIndex[actorID]
	if !ok {
		return []model.Recommendation{}, nil
	}

	skip := make(map[int]struct{})
	if excludeRated {
		for _, i := range a.rated[u] {
			skip[i] = struct{}{}
		}
	}

	out := make([]model.Recommendation, 0, len(a.items))
	for i, itemID := range a.items {
		if _, rated := skip[i]; rated {
			continue
		}
		out = append(out, model.Recommendation{ItemID: itemID, PredictedRating: a.score(u, i)})
	}

	sort.Slice(out, func(x, y int) bool {
		if out[x].PredictedRating != out[y].PredictedRating {
			return out[x].PredictedRating > out[y].PredictedRating
		}
		return out[x].ItemID < out[y].ItemID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// score is mean + x_u'y_i clamped to the observed rating range.
func (a *ALS) score(u, i int) float64 {
	s := a.mean
	for f := range a.X[u] {
		s += a.X[u][f] * a.Y[i][f]
	}
	return math.Max(a.ratingMin, math.Min(a.ratingMax, s))
}

// Trained reports whether Fit or UnmarshalBinary completed.
func (a *ALS) Trained() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.trained
}

// Describe summarizes the trained model. Dimension metadata is owned by the
// caller and left zero.
func (a *ALS) Describe() model.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.trained {
		return model.Stats{Factors: a.factors}
	}
	cells := float64(len(a.actors) * len(a.items))
	return model.Stats{
		Users:      len(a.actors),
		Products:   len(a.items),
		Ratings:    a.nRatings,
		Factors:    a.factors,
		GlobalMean: a.mean,
		Sparsity:   1 - float64(a.nRatings)/cells,
		RatingMin:  a.ratingMin,
		RatingMax:  a.ratingMax,
	}
}
