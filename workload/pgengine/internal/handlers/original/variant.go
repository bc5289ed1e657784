// Package original implements the page handlers of the "original" query
// variant: the normalized table shape and per-page query sequences of the
// stock Lobsters application, including its superfluous read round-trips
// and known write-path inconsistencies, which are reproduced on purpose.
package original

import (
	"github.com/lobsterload/lobsterload/workload"
)

// VariantName is the registry name of this handler set.
const VariantName = "original"

// Variant is the handler set. It is stateless apart from its logger; every
// handler re-reads what it needs from the store on each invocation.
type Variant struct {
	logger workload.Logger
}

// New creates the handler set. A nil logger disables handler logging.
func New(logger workload.Logger) *Variant {
	return &Variant{logger: logger}
}

// Name returns the registry name of this handler set.
func (v *Variant) Name() string {
	return VariantName
}

func (v *Variant) warn(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Warn(msg, args...)
	}
}
