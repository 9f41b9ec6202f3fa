// Package report delivers classified hits to external collaborators. The
// engine never assumes delivery succeeded; reporter errors are surfaced to
// the caller for logging only.
package report

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// Reporter consumes the surviving hits of one category run. Message
// formatting and transport are entirely the collaborator's concern.
type Reporter interface {
	Report(ctx context.Context, category string, threshold decimal.Decimal, hits []model.ClassifiedEntry) error
}

// Multi fans a report out to several reporters, returning the last error.
type Multi []Reporter

// Report sends the hits to every reporter. Failures don't stop the others.
func (m Multi) Report(ctx context.Context, category string, threshold decimal.Decimal, hits []model.ClassifiedEntry) error {
	var lastErr error
	for _, r := range m {
		if err := r.Report(ctx, category, threshold, hits); err != nil {
			zap.L().Warn("reporter failed",
				zap.String("category", category),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	return lastErr
}

// LogReporter writes hits to the structured log. Useful as a default when
// no webhook is configured.
type LogReporter struct{}

// Report logs one line per hit.
func (LogReporter) Report(_ context.Context, category string, threshold decimal.Decimal, hits []model.ClassifiedEntry) error {
	for _, h := range hits {
		zap.L().Info("price drop hit",
			zap.String("category", category),
			zap.String("threshold", threshold.String()),
			zap.String("brand", h.Brand),
			zap.String("name", h.Name),
			zap.String("old_price", h.OldPrice.String()),
			zap.String("new_price", h.NewPrice.String()),
			zap.String("drop_percent", h.DropPercent.String()),
			zap.String("url", h.URL),
		)
	}
	return nil
}
