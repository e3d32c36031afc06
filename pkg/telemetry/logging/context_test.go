package logging

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithCallerID(ctx, "spouse-1")
	ctx = WithDecisionID(ctx, "dec-42")
	ctx = WithDomain(ctx, "family")

	if got := GetCallerID(ctx); got != "spouse-1" {
		t.Errorf("caller id = %q, want spouse-1", got)
	}
	if got := GetDecisionID(ctx); got != "dec-42" {
		t.Errorf("decision id = %q, want dec-42", got)
	}
	if got := GetDomain(ctx); got != "family" {
		t.Errorf("domain = %q, want family", got)
	}
}

func TestContextFieldsSkipsEmpty(t *testing.T) {
	ctx := WithCallerID(context.Background(), "spouse-1")

	fields := ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("fields = %v, want one key-value pair", fields)
	}
	if fields[0] != "caller_id" || fields[1] != "spouse-1" {
		t.Errorf("fields = %v, want [caller_id spouse-1]", fields)
	}
}

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	if GetCallerID(ctx) != "" || GetDecisionID(ctx) != "" || GetDomain(ctx) != "" {
		t.Error("getters should return empty strings on a bare context")
	}
}
