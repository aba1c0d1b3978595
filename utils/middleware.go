package utils

import (
	"context"
	"fmt"

	"frontdesk-server/services"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

const actorKey = "actor"

// Can admits the request when the token's role is granted act on obj.
func Can(policy *Policy, obj, act string) iris.Handler {
	return func(ctx iris.Context) {
		claims, ok := jwt.Get(ctx).(*AccessToken)
		if !ok || claims == nil {
			JSONError(ctx, iris.StatusUnauthorized, "unauthorized", "missing access token")
			return
		}
		if !policy.Allowed(claims.Role, obj, act) {
			JSONError(ctx, iris.StatusForbidden, "forbidden", fmt.Sprintf("%s may not %s %s", claims.Role, act, obj))
			return
		}
		ctx.Values().Set(actorKey, fmt.Sprintf("%s:%d", claims.Role, claims.ID))
		ctx.Next()
	}
}

// ActorContext carries the authenticated staff member into the services so
// the audit trail can name them.
func ActorContext(ctx iris.Context) context.Context {
	return services.WithActor(ctx.Request().Context(), ctx.Values().GetString(actorKey))
}
