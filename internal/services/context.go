package services

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

var userIDKey ctxKey = "user_id"
var orgIDKey ctxKey = "org_id"
var roleClaimKey ctxKey = "role_claim"

// WithIdentityContext records the verified identity claims for a
// request. The core trusts these; verification happened upstream.
func WithIdentityContext(ctx context.Context, userID uuid.UUID, orgID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	if orgID != "" {
		ctx = context.WithValue(ctx, orgIDKey, orgID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, roleClaimKey, role)
	}
	return ctx
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func OrgIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(orgIDKey)
	if value == nil {
		return "", false
	}
	orgID, ok := value.(string)
	return orgID, ok
}
