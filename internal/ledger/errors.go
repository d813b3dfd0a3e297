package ledger

import "errors"

// ErrOverSell is returned when a sell quantity exceeds the open remainder.
var ErrOverSell = errors.New("sell quantity exceeds remaining open quantity")

// ErrInvalidMergeState is returned when a buy targets a closed position.
var ErrInvalidMergeState = errors.New("cannot merge a buy into a closed position")

// ErrInvalidDateFormat is returned when an expiration token cannot be parsed.
var ErrInvalidDateFormat = errors.New("invalid expiration date format")

// ErrInvalidContract is returned when a contract descriptor cannot be parsed.
var ErrInvalidContract = errors.New("invalid contract format")
