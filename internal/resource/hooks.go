package resource

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
)

// Phase is an explicit lifecycle phase of the generic handler. Hooks are
// registered per phase; there is no pattern-matched interception.
type Phase int

const (
	PhaseList Phase = iota
	PhaseGet
	PhaseCreate
	PhaseUpdate
	PhaseDelete
)

func (p Phase) String() string {
	switch p {
	case PhaseList:
		return "list"
	case PhaseGet:
		return "get"
	case PhaseCreate:
		return "create"
	case PhaseUpdate:
		return "update"
	case PhaseDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// BeforeHook runs before the write is persisted and may mutate the record.
// Returning an error fails the request.
type BeforeHook func(ctx context.Context, doc bson.M) error

// AfterHook runs after the write is durable. After hooks are best-effort:
// a failure is logged and never fails the triggering request.
type AfterHook func(ctx context.Context, doc bson.M) error

type hookSet struct {
	before map[Phase][]BeforeHook
	after  map[Phase][]AfterHook
}

func newHookSet() hookSet {
	return hookSet{
		before: make(map[Phase][]BeforeHook),
		after:  make(map[Phase][]AfterHook),
	}
}

func (h *hookSet) runBefore(ctx context.Context, phase Phase, doc bson.M) error {
	for _, hook := range h.before[phase] {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (h *hookSet) runAfter(ctx context.Context, phase Phase, resource string, doc bson.M) {
	for _, hook := range h.after[phase] {
		if err := hook(ctx, doc); err != nil {
			slog.ErrorContext(ctx, "after-persist hook failed",
				slog.String("resource", resource),
				slog.String("phase", phase.String()),
				slog.Any("error", err),
			)
		}
	}
}
