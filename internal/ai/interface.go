package ai

import (
	"context"
	"errors"
)

// ErrAdvisorUnavailable is returned when no advisory model is configured or
// the model could not produce a usable answer.
var ErrAdvisorUnavailable = errors.New("advisor unavailable")

// Advisor proposes a visit order and a short theme for one day.
// Callers must treat every error as "keep the geographic order".
type Advisor interface {
	ProposeOrder(ctx context.Context, day DayBrief) (*OrderHint, error)
}

// Unavailable is the advisor used when the feature is switched off.
type Unavailable struct{}

func (Unavailable) ProposeOrder(context.Context, DayBrief) (*OrderHint, error) {
	return nil, ErrAdvisorUnavailable
}
