package observability

import "go.uber.org/zap"

// NewLogger builds the process-wide *zap.Logger. In production it uses
// zap's JSON encoder for machine-readable log shipping; in development
// it switches to zap's human-readable console encoder and debug level,
// matching the dev/prod split every *zap.Logger constructor in the
// pipeline (fixclient.Config, execution.NewManager) falls back to
// zap.NewNop() instead of this factory when left nil.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
