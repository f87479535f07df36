// Package tips generates marketing tips with a language model. Tips are a
// non-critical enhancement: a failing model degrades to an empty list.
package tips

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/fallback"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

const FlowName = "generateMarketingTipsFlow"

// Model produces tips for a rendered prompt. Implementations return the
// structured {tips: [...]} output of the provider.
type Model interface {
	GenerateTips(ctx context.Context, prompt string, count int) ([]string, error)
}

type Flow struct {
	Model   Model
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewFlow(m Model, logger *zap.Logger, mt *metrics.Metrics) *Flow {
	return &Flow{Model: m, Logger: logging.Resolve(logger), Metrics: mt}
}

// Generate validates req and asks the model for tips. Only an invalid request
// is returned as an error; model failures yield an empty TipResponse.
func (f *Flow) Generate(ctx context.Context, req model.TipRequest) (model.TipResponse, error) {
	if err := req.Validate(); err != nil {
		return model.TipResponse{}, err
	}
	count := req.Normalize()
	prompt := BuildPrompt(count)
	logger := logging.Resolve(f.Logger)

	tips := fallback.OrDefault(ctx, func(ctx context.Context) ([]string, error) {
		return f.Model.GenerateTips(ctx, prompt, count)
	}, []string{}, func(err error) {
		logger.Error("Error in flow calling AI model", zap.String("flow", FlowName), zap.Int("count", count), zap.Error(err))
		f.Metrics.TipFallback()
	})
	if tips == nil {
		tips = []string{}
	}
	return model.TipResponse{Tips: tips}, nil
}
