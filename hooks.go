package exprmap

import (
	"sync"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Hook function types for reconciliation events
type (
	// CallsReconciledHook is called after similarity calls were loaded for a taxon
	CallsReconciledHook func(taxonID int, calls []*similarity.SimilarityExpressionCall)

	// IntegrityViolationHook is called when an entity or a gene resolves to
	// several groups and the operation is aborted
	IntegrityViolationHook func(violation *errors.IntegrityError)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnCallsReconciled(fn CallsReconciledHook)
	OnIntegrityViolation(fn IntegrityViolationHook)
}

// hooks manages event callbacks
type hooks struct {
	mu                   sync.RWMutex
	onCallsReconciled    []CallsReconciledHook
	onIntegrityViolation []IntegrityViolationHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnCallsReconciled registers a callback for loaded similarity calls
func (h *hooks) OnCallsReconciled(fn CallsReconciledHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCallsReconciled = append(h.onCallsReconciled, fn)
}

// OnIntegrityViolation registers a callback for integrity violations
func (h *hooks) OnIntegrityViolation(fn IntegrityViolationHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIntegrityViolation = append(h.onIntegrityViolation, fn)
}

func (h *hooks) triggerCallsReconciled(taxonID int, calls []*similarity.SimilarityExpressionCall) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onCallsReconciled {
		hook(taxonID, append([]*similarity.SimilarityExpressionCall(nil), calls...))
	}
}

// triggerIntegrityViolation runs the hooks if err is an integrity error and
// reports whether it was one.
func (h *hooks) triggerIntegrityViolation(err error) (*errors.IntegrityError, bool) {
	var violation *errors.IntegrityError
	if !errors.As(err, &violation) {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onIntegrityViolation {
		hook(violation)
	}
	return violation, true
}
