package stages

import (
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/pkg/ai"
)

// classify tags provider errors for the retry policy. Errors the provider layer cannot
// classify are left to the pipeline's message heuristics.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case ai.IsTemporary(err):
		return pipeline.Transient(err)
	case ai.IsPermanent(err):
		return pipeline.Permanent(err)
	}
	return err
}

func transient(err error) error { return pipeline.Transient(err) }

func permanent(err error) error { return pipeline.Permanent(err) }

func report(in pipeline.StageInput, fraction float64) {
	if in.Report != nil {
		in.Report(fraction)
	}
}
