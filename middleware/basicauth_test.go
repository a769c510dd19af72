package middleware

import (
	"encoding/base64"
	"testing"

	"github.com/yourusername/ember/core"
)

func authHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestBasicAuthAccepts(t *testing.T) {
	handler := BasicAuth("admin", "hunter2")(func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	ctx := &core.Context{}
	ctx.SetMethod("GET")
	ctx.SetPath("/private")
	ctx.SetRequestHeader("Authorization", authHeader("admin", "hunter2"))

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.StatusCode() != 200 {
		t.Errorf("expected 200, got %d", ctx.StatusCode())
	}
}

func TestBasicAuthRejectsWrongCredentials(t *testing.T) {
	handler := BasicAuth("admin", "hunter2")(func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	ctx := &core.Context{}
	ctx.SetMethod("GET")
	ctx.SetPath("/private")
	ctx.SetRequestHeader("Authorization", authHeader("admin", "wrong"))

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.StatusCode() != 401 {
		t.Errorf("expected 401, got %d", ctx.StatusCode())
	}
	if ctx.GetResponseHeader("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
}

func TestBasicAuthRejectsMissingHeader(t *testing.T) {
	handler := BasicAuth("admin", "hunter2")(func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	ctx := &core.Context{}
	ctx.SetMethod("GET")
	ctx.SetPath("/private")

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.StatusCode() != 401 {
		t.Errorf("expected 401, got %d", ctx.StatusCode())
	}
}

func TestBasicAuthSkipPaths(t *testing.T) {
	handler := BasicAuthWithConfig(BasicAuthConfig{
		Credentials: []Credential{{Username: "admin", Password: "hunter2"}},
		SkipPaths:   []string{"/health"},
	})(func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	ctx := &core.Context{}
	ctx.SetMethod("GET")
	ctx.SetPath("/health")

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.StatusCode() != 200 {
		t.Errorf("expected 200 for skipped path, got %d", ctx.StatusCode())
	}
}

func TestBasicAuthMultipleCredentials(t *testing.T) {
	handler := BasicAuthWithConfig(BasicAuthConfig{
		Credentials: []Credential{
			{Username: "admin", Password: "hunter2"},
			{Username: "service", Password: "token123"},
		},
	})(func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	ctx := &core.Context{}
	ctx.SetMethod("GET")
	ctx.SetPath("/private")
	ctx.SetRequestHeader("Authorization", authHeader("service", "token123"))

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.StatusCode() != 200 {
		t.Errorf("expected 200, got %d", ctx.StatusCode())
	}
}
