package shared

import "context"

// Actor identifies the already-authenticated caller and the business scope
// resolved by the upstream authorization layer. The core trusts this input
// and performs no credential checks itself.
type Actor struct {
	UserID     int64
	BusinessID int64
}

type actorContextKey struct{}

// ContextWithActor attaches the actor to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored in the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
