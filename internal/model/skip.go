package model

import "errors"

// ErrSkipped is the root of every per-offer rejection.
var ErrSkipped = errors.New("offer skipped")

type SkipReason string

const (
	SkipNotTargetRooms  SkipReason = "not_target_rooms"
	SkipPriceOutOfRange SkipReason = "price_out_of_range"
	SkipInvalidOffer    SkipReason = "invalid_offer"
	SkipInvalidPrice    SkipReason = "invalid_price"
	SkipMissingLink     SkipReason = "missing_link"
)
