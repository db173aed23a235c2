package airquality

import (
	"context"
	"time"

	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

// Source abstracts the air quality API. *breezometer.Client satisfies it.
type Source interface {
	CurrentConditions(ctx context.Context, r breezometer.CurrentRequest) (*breezometer.Result, error)
	Call(ctx context.Context, op breezometer.Operation, p breezometer.Params) (*breezometer.Result, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot Snapshot)
	GetLatest(loc Location) (Snapshot, error)
	GetRange(loc Location, from, to time.Time) ([]Snapshot, error)
}
