// Package regression fits linear, quadratic and exponential curves to a
// series, using the index 0..n-1 as the independent variable.
package regression

import (
	"fmt"
	"math"

	"synapse-analytics/internal/series"
	"synapse-analytics/internal/stats"
)

// FitType names a regression model.
type FitType string

const (
	TypeLinear      FitType = "linear"
	TypeQuadratic   FitType = "quadratic"
	TypeExponential FitType = "exponential"
)

// singularDet is the determinant magnitude below which the quadratic
// normal equations are treated as singular.
const singularDet = 1e-10

// complexityPenalty is subtracted from the quadratic and exponential R²
// before BestFit compares them with the linear R².
const complexityPenalty = 0.01

// Fit is what every model produces.
type Fit struct {
	Fitted   []float64 `json:"fitted"`
	RSquared float64   `json:"r_squared"`
	Equation string    `json:"equation"`
}

// Linear is y = Slope*x + Intercept.
type Linear struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Fit
}

// Quadratic is y = A*x² + B*x + C.
type Quadratic struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	Fit
}

// Exponential is y = A * e^(B*x).
type Exponential struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	Fit
}

// At evaluates the fitted line at x.
func (l Linear) At(x float64) float64 { return l.Slope*x + l.Intercept }

// At evaluates the fitted parabola at x.
func (q Quadratic) At(x float64) float64 { return q.A*x*x + q.B*x + q.C }

// At evaluates the fitted exponential at x.
func (e Exponential) At(x float64) float64 { return e.A * math.Exp(e.B*x) }

// leastSquares regresses ys on xs. The slope is 0 when xs has no variance.
func leastSquares(xs, ys []float64) (slope, intercept float64) {
	mx, my := series.Mean(xs), series.Mean(ys)
	num, den := 0.0, 0.0
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den != 0 {
		slope = num / den
	}
	return slope, my - slope*mx
}

func signed(v float64) (string, float64) {
	if v >= 0 {
		return "+", v
	}
	return "-", -v
}

// FitLinear fits a least-squares line. Fewer than two points yield NaN
// coefficients and an empty fit.
func FitLinear(data []float64) Linear {
	n := len(data)
	if n < 2 {
		return Linear{Slope: math.NaN(), Intercept: math.NaN(), Fit: Fit{Fitted: []float64{}, RSquared: math.NaN()}}
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	l := Linear{}
	l.Slope, l.Intercept = leastSquares(xs, data)

	l.Fitted = make([]float64, n)
	for i := range l.Fitted {
		l.Fitted[i] = l.At(float64(i))
	}
	l.RSquared = stats.RSquared(data, l.Fitted)
	sign, abs := signed(l.Intercept)
	l.Equation = fmt.Sprintf("y = %.4fx %s %.4f", l.Slope, sign, abs)
	return l
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// FitQuadratic solves the normal equations over raw power sums of the index
// with Cramer's rule. Fewer than three points yield NaN coefficients and an
// empty fit; a numerically singular system falls back to the linear fit
// with A = 0.
func FitQuadratic(data []float64) Quadratic {
	n := len(data)
	if n < 3 {
		return Quadratic{A: math.NaN(), B: math.NaN(), C: math.NaN(), Fit: Fit{Fitted: []float64{}, RSquared: math.NaN()}}
	}

	var sx, sx2, sx3, sx4, sy, sxy, sx2y float64
	for i, y := range data {
		x := float64(i)
		x2 := x * x
		sx += x
		sx2 += x2
		sx3 += x2 * x
		sx4 += x2 * x2
		sy += y
		sxy += x * y
		sx2y += x2 * y
	}
	fn := float64(n)

	det := det3([3][3]float64{
		{sx4, sx3, sx2},
		{sx3, sx2, sx},
		{sx2, sx, fn},
	})
	if math.Abs(det) < singularDet {
		l := FitLinear(data)
		return Quadratic{A: 0, B: l.Slope, C: l.Intercept, Fit: l.Fit}
	}

	q := Quadratic{
		A: det3([3][3]float64{{sx2y, sx3, sx2}, {sxy, sx2, sx}, {sy, sx, fn}}) / det,
		B: det3([3][3]float64{{sx4, sx2y, sx2}, {sx3, sxy, sx}, {sx2, sy, fn}}) / det,
		C: det3([3][3]float64{{sx4, sx3, sx2y}, {sx3, sx2, sxy}, {sx2, sx, sy}}) / det,
	}
	q.Fitted = make([]float64, n)
	for i := range q.Fitted {
		q.Fitted[i] = q.At(float64(i))
	}
	q.RSquared = stats.RSquared(data, q.Fitted)
	signB, absB := signed(q.B)
	signC, absC := signed(q.C)
	q.Equation = fmt.Sprintf("y = %.4fx² %s %.4fx %s %.4f", q.A, signB, absB, signC, absC)
	return q
}

// FitExponential fits ln(y) = ln(A) + B*x over the strictly positive values
// only. The log-line is fitted to the kept values as a packed sequence
// (x = 0..m-1) and then evaluated at every original index, so gaps from
// dropped values shift the curve. R² is taken over the retained indices on
// the original scale. Fewer than two positive values yield NaN
// coefficients and an all-undefined fit.
func FitExponential(data []float64) Exponential {
	n := len(data)
	kept := make([]int, 0, n)
	logs := make([]float64, 0, n)
	for i, y := range data {
		if y > 0 {
			kept = append(kept, i)
			logs = append(logs, math.Log(y))
		}
	}
	if len(logs) < 2 {
		return Exponential{A: math.NaN(), B: math.NaN(), Fit: Fit{Fitted: series.NewUndefined(n), RSquared: math.NaN()}}
	}

	line := FitLinear(logs)
	e := Exponential{A: math.Exp(line.Intercept), B: line.Slope}
	e.Fitted = make([]float64, n)
	for i := range e.Fitted {
		e.Fitted[i] = e.At(float64(i))
	}

	actual := make([]float64, len(kept))
	fitted := make([]float64, len(kept))
	for j, i := range kept {
		actual[j] = data[i]
		fitted[j] = e.Fitted[i]
	}
	e.RSquared = stats.RSquared(actual, fitted)
	e.Equation = fmt.Sprintf("y = %.4f × e^(%.4fx)", e.A, e.B)
	return e
}

// BestFitResult carries every candidate fit and the winner.
type BestFitResult struct {
	Best        FitType     `json:"best"`
	Linear      Linear      `json:"linear"`
	Quadratic   Quadratic   `json:"quadratic"`
	Exponential Exponential `json:"exponential"`
}

// BestFit compares R² after penalising the quadratic and exponential models
// by 0.01 (an undefined exponential R² scores -1). A more complex model
// must strictly beat the simpler ones; quadratic wins ties with exponential.
func BestFit(data []float64) BestFitResult {
	res := BestFitResult{
		Best:        TypeLinear,
		Linear:      FitLinear(data),
		Quadratic:   FitQuadratic(data),
		Exponential: FitExponential(data),
	}

	linScore := res.Linear.RSquared
	quadScore := res.Quadratic.RSquared - complexityPenalty
	expScore := -1.0
	if !math.IsNaN(res.Exponential.RSquared) {
		expScore = res.Exponential.RSquared - complexityPenalty
	}

	switch {
	case quadScore > linScore && quadScore >= expScore:
		res.Best = TypeQuadratic
	case expScore > linScore && expScore > quadScore:
		res.Best = TypeExponential
	}
	return res
}

// TrendLine is the fitted sequence of the linear fit.
func TrendLine(data []float64) []float64 {
	return FitLinear(data).Fitted
}

// PredictFuture evaluates the chosen model at indices n..n+steps-1. An
// unknown fit type yields no predictions.
func PredictFuture(data []float64, steps int, fit FitType) []float64 {
	if steps < 1 {
		return []float64{}
	}

	var at func(float64) float64
	switch fit {
	case TypeLinear, "":
		at = FitLinear(data).At
	case TypeQuadratic:
		at = FitQuadratic(data).At
	case TypeExponential:
		at = FitExponential(data).At
	default:
		return []float64{}
	}

	n := len(data)
	out := make([]float64, steps)
	for i := range out {
		out[i] = at(float64(n + i))
	}
	return out
}

// ParseFitType maps a name to a FitType, defaulting to linear.
func ParseFitType(s string) (FitType, error) {
	switch FitType(s) {
	case "", TypeLinear:
		return TypeLinear, nil
	case TypeQuadratic:
		return TypeQuadratic, nil
	case TypeExponential:
		return TypeExponential, nil
	}
	return "", fmt.Errorf("regression: unknown fit type %q", s)
}
