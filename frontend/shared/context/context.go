package context

import (
	"context"

	"proposal/models"
)

type sessionKey struct{}

func NewContextWithSession(ctx context.Context, session models.VisitorSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.VisitorSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.VisitorSession)
	return s, ok
}
