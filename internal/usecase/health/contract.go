package health

import "context"

// StorePinger checks search store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CataloguePinger checks relational catalogue availability.
type CataloguePinger interface {
	Ping(ctx context.Context) error
}
