package watching

import (
	"context"

	"avito-watch/internal/model"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Extractor interface {
	Extract(page string) []model.Listing
}

type Notifier interface {
	Send(ctx context.Context, listing model.Listing) error
}

// Waiter blocks between cycles and returns early when ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}
