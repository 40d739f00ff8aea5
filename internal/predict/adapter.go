package predict

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/util"
)

// WindowSize is the maximum number of history points the model path looks at.
const WindowSize = 30

var heuristicFactor = decimal.RequireFromString("1.05")

// Heuristic returns ref × 1.05.
func Heuristic(ref decimal.Decimal) decimal.Decimal {
	return ref.Mul(heuristicFactor)
}

// Normalizer holds the feature and target scaling the model was fitted with.
// A zero standard deviation is treated as 1.
type Normalizer struct {
	InputMean  float64
	InputStd   float64
	OutputMean float64
	OutputStd  float64
}

func (n Normalizer) normalize(x float64) float64 {
	return (x - n.InputMean) / nonZero(n.InputStd)
}

func (n Normalizer) denormalize(y float64) float64 {
	return y*nonZero(n.OutputStd) + n.OutputMean
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// Adapter produces next-price estimates. Whether a model is present is fixed
// at construction; without one every estimate is heuristic.
type Adapter struct {
	model Model
	norm  Normalizer
	log   *slog.Logger
}

// NewAdapter creates an adapter. model may be nil.
func NewAdapter(model Model, norm Normalizer, log *slog.Logger) *Adapter {
	if log == nil {
		log = util.Discard()
	}
	return &Adapter{model: model, norm: norm, log: log.With("component", "predict")}
}

// ModelPresent reports whether a model was loaded.
func (a *Adapter) ModelPresent() bool {
	return a.model != nil
}

// PredictNext estimates the next price given the reference (current) price
// and recent closes ordered most recent first. It always returns a value;
// any failure on the model path resolves to the heuristic.
func (a *Adapter) PredictNext(ref decimal.Decimal, history []decimal.Decimal) (decimal.Decimal, domain.Basis) {
	if a.model == nil || len(history) == 0 || !ref.IsPositive() {
		return Heuristic(ref), domain.BasisHeuristic
	}

	p, err := a.modelPredict(ref, history)
	if err != nil {
		a.log.Warn("model prediction failed, using heuristic", "error", err)
		return Heuristic(ref), domain.BasisHeuristic
	}
	return p, domain.BasisModel
}

func (a *Adapter) modelPredict(ref decimal.Decimal, history []decimal.Decimal) (p decimal.Decimal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v: %w", r, domain.ErrPredictionUnavailable)
		}
	}()

	window := history[:min(WindowSize, len(history))]
	feature := window[len(window)-1].InexactFloat64()

	y, err := a.model.Predict(float32(a.norm.normalize(feature)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", domain.ErrPredictionUnavailable, err)
	}
	raw := a.norm.denormalize(float64(y))
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return decimal.Zero, fmt.Errorf("non-finite model output %v: %w", raw, domain.ErrPredictionUnavailable)
	}

	scale := decimal.NewFromInt(1)
	if first := history[0]; first.IsPositive() {
		scale = ref.Div(first)
	}
	p = decimal.NewFromFloat(raw).Mul(scale)
	if p.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative prediction %s: %w", p, domain.ErrPredictionUnavailable)
	}
	return p.Round(4), nil
}
