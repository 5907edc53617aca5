package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Coefficient is one estimated regressor.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	TStat    float64
}

// OLSResult holds one fitted model.
type OLSResult struct {
	N            int // observations
	K            int // regressors including the constant
	Coefficients []Coefficient
	R2           float64
	AdjR2        float64
	ResidualStd  float64
}

// FitOLS estimates y = X*beta + e by ordinary least squares over a QR
// factorization. X must not contain the constant; it is prepended here.
// names labels the columns of X.
func FitOLS(names []string, X *mat.Dense, y []float64) (*OLSResult, error) {
	n, k := X.Dims()
	if len(names) != k {
		return nil, fmt.Errorf("ols: %d names for %d regressors", len(names), k)
	}
	if len(y) != n {
		return nil, fmt.Errorf("ols: %d observations, %d responses", n, len(y))
	}
	k++ // constant
	if n <= k {
		return nil, fmt.Errorf("ols: %d observations cannot identify %d coefficients", n, k)
	}

	// Design matrix with the constant in column 0.
	design := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j := 1; j < k; j++ {
			design.Set(i, j, X.At(i, j-1))
		}
	}

	var qr mat.QR
	qr.Factorize(design)

	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("ols: design matrix is rank deficient: %w", err)
	}

	// Residual and total sums of squares.
	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(design, beta)
	mean := stat.Mean(y, nil)
	var rss, tss float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
		d := y[i] - mean
		tss += d * d
	}

	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}
	adjR2 := 1 - (1-r2)*float64(n-1)/float64(n-k)
	sigma2 := rss / float64(n-k)

	// Coefficient covariance sigma2 * (X'X)^-1 for standard errors.
	var xtx, cov mat.Dense
	xtx.Mul(design.T(), design)
	if err := cov.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("ols: normal matrix not invertible: %w", err)
	}

	coefficients := make([]Coefficient, k)
	labels := append([]string{"CONST"}, names...)
	for j := 0; j < k; j++ {
		se := math.Sqrt(sigma2 * cov.At(j, j))
		c := Coefficient{Name: labels[j], Estimate: beta.AtVec(j), StdErr: se}
		if se > 0 {
			c.TStat = c.Estimate / se
		}
		coefficients[j] = c
	}

	return &OLSResult{
		N:            n,
		K:            k,
		Coefficients: coefficients,
		R2:           r2,
		AdjR2:        adjR2,
		ResidualStd:  math.Sqrt(sigma2),
	}, nil
}

// CorrelationMatrix computes the pairwise Pearson correlations over the
// columns of the sample, dependent included.
func CorrelationMatrix(s Sample) *mat.SymDense {
	n := len(s.Values)
	k := len(s.Names)
	data := mat.NewDense(n, k, nil)
	for i, row := range s.Values {
		data.SetRow(i, row)
	}
	corr := mat.NewSymDense(k, nil)
	stat.CorrelationMatrix(corr, data, nil)
	return corr
}
