package observability

// NoOpObserver ignores every operation.
type NoOpObserver struct{}

// ObserveOperation does nothing.
func (n *NoOpObserver) ObserveOperation(ctx OperationContext) {}

// NewNoOpObserver returns an Observer that ignores every operation.
func NewNoOpObserver() Observer {
	return &NoOpObserver{}
}
