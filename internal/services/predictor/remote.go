package predictor

import (
	"context"
	"fmt"
	"math"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	xhttp "TradePulse/pkg/http"
)

// Remote delegates scoring to an external model-serving endpoint. The remote
// contract is a single POST /predict returning a score in [-1, 1];
// classification happens locally so thresholds stay consistent across
// predictor modes.
type Remote struct {
	baseURL    string
	client     *xhttp.Client
	thresholds Thresholds
}

func NewRemote(baseURL string, timeout time.Duration, thresholds Thresholds) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{
		baseURL:    baseURL,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		thresholds: thresholds,
	}
}

type predictRequest struct {
	Timeframe string                `json:"timeframe"`
	Columns   []string              `json:"columns"`
	Rows      [][]float64           `json:"rows"`
	Summary   models.FeatureSummary `json:"summary"`
	Market    *models.MarketContext `json:"market_context,omitempty"`
}

type predictResponse struct {
	Score        float64 `json:"score"`
	ModelVersion string  `json:"model_version,omitempty"`
}

func (r *Remote) Predict(ctx context.Context, features *models.FeatureMatrix, tf models.Timeframe, market *models.MarketContext) (models.Prediction, error) {
	if r.baseURL == "" {
		return models.Prediction{}, fmt.Errorf("remote predictor url not configured")
	}
	if features == nil || len(features.Rows) == 0 {
		return models.Prediction{}, fmt.Errorf("empty feature matrix")
	}

	var resp predictResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/predict",
		Body: predictRequest{
			Timeframe: string(tf),
			Columns:   features.Columns,
			Rows:      features.Rows,
			Summary:   features.Summary,
			Market:    market,
		},
	}, &resp)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("remote predict: %w", err)
	}
	if resp.Score < -1 || resp.Score > 1 || math.IsNaN(resp.Score) {
		return models.Prediction{}, fmt.Errorf("remote predict: score %v outside [-1, 1]", resp.Score)
	}

	return models.Prediction{
		Score:          resp.Score,
		Confidence:     math.Abs(resp.Score),
		Classification: r.thresholds.Classify(resp.Score),
		Timeframe:      tf,
		Features:       features.Summary,
	}, nil
}

var _ domsvc.Predictor = (*Remote)(nil)
