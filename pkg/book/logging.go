package book

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing book operation.
// Only the identifiers relevant to the operation are set.
type OperationLog struct {
	Operation  string
	MatchID    MatchID
	CustomerID CustomerID
	EntryID    EntryID
	Side       Side
	Amount     float64
	Count      int
	Status     string
	Error      error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithIDGenerator replaces the identifier source used for new records.
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		service.newID = generate
	}
}

// WithExposureLimit sets the limit reported by match summaries.
func WithExposureLimit(limit float64) ServiceOption {
	return func(service *Service) {
		service.exposureLimit = &limit
	}
}
