package pipeline

import "context"

// AcceptAllFilter keeps every message; the default filter for leaderboards
// that do not yet need predicate-based message dropping.
type AcceptAllFilter[M any] struct{}

func NewAcceptAllFilter[M any]() AcceptAllFilter[M] { return AcceptAllFilter[M]{} }

func (AcceptAllFilter[M]) Keep(M) bool { return true }

func (AcceptAllFilter[M]) Close(context.Context) {}

// FilterFunc adapts a predicate function into a Filter.
type FilterFunc[M any] func(message M) bool

func (f FilterFunc[M]) Keep(message M) bool { return f(message) }

func (FilterFunc[M]) Close(context.Context) {}
