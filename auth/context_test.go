package auth

import (
	"context"
	"testing"
	"time"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil || PrincipalFromContext(ctx) != "" {
		t.Fatal("empty context should carry no identity")
	}

	id := &Identity{Principal: "svc", ExpiresAt: time.Unix(100, 0)}
	ctx = WithIdentity(ctx, id)
	if IdentityFromContext(ctx) != id {
		t.Error("identity not round-tripped")
	}
	if PrincipalFromContext(ctx) != "svc" {
		t.Error("principal not round-tripped")
	}
	if !id.IsExpired(time.Unix(101, 0)) || id.IsExpired(time.Unix(99, 0)) {
		t.Error("IsExpired boundary wrong")
	}
}
