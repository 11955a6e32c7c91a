package models

// envelope carries the top-level keys shared by every real-time response.
// The provider has been seen emitting both spellings of the delay key.
type envelope struct {
	AggregateDelayPascal *uint64 `json:"AggregateDelay"`
	AggregateDelaySnake  *uint64 `json:"aggregate_delay"`
	Timestamp            uint64  `json:"timestamp"`
}

func (e envelope) aggregateDelay() uint64 {
	switch {
	case e.AggregateDelaySnake != nil:
		return *e.AggregateDelaySnake
	case e.AggregateDelayPascal != nil:
		return *e.AggregateDelayPascal
	default:
		return 0
	}
}
