package access

import (
	"context"

	"condo-http-service/internal/domain/models"
)

// Actor 当前请求的调用者，匿名调用者 UserID 为 0
type Actor struct {
	UserID uint
	Role   models.Role
}

// Anonymous returns the actor used when no credentials were presented.
func Anonymous() Actor { return Actor{} }

// NewActor builds an identified actor.
func NewActor(userID uint, role models.Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// Authenticated reports whether the actor was identified.
func (a Actor) Authenticated() bool {
	return a.UserID != 0 && a.Role.Valid()
}

// IsAdmin reports whether the actor is an identified administrator.
func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role.IsAdmin()
}

// Owns reports whether the actor is the resident owning an object.
func (a Actor) Owns(residentID uint) bool {
	return a.Authenticated() && a.UserID == residentID
}

type actorKey struct{}

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored on ctx, or the anonymous actor.
func FromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor
	}
	return Anonymous()
}
