package audiograph

// Reconcile runs reconciliation without mutation.
func (e *Engine) Reconcile() error {
	return e.reconcile(false)
}
