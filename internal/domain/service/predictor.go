package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// Predictor scores one feature matrix into a directional prediction.
// Implementations must return scores in [-1, 1] with confidence = |score|.
type Predictor interface {
	Predict(ctx context.Context, features *models.FeatureMatrix, tf models.Timeframe, market *models.MarketContext) (models.Prediction, error)
}
