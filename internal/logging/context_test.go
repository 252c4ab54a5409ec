// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	if len(id1) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestGenerateRunID(t *testing.T) {
	t.Parallel()

	if id := GenerateRunID(); len(id) != 36 {
		t.Errorf("expected 36-character run ID, got %d", len(id))
	}
}

func TestCorrelationIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := CorrelationIDFromContext(ctx); id != "" {
		t.Errorf("expected empty correlation ID, got %s", id)
	}

	ctx = ContextWithCorrelationID(ctx, "run12345")
	if id := CorrelationIDFromContext(ctx); id != "run12345" {
		t.Errorf("expected run12345, got %s", id)
	}

	ctx = ContextWithNewCorrelationID(context.Background())
	if id := CorrelationIDFromContext(ctx); len(id) != 8 {
		t.Errorf("expected generated correlation ID, got %q", id)
	}
}

func TestCtxAddsContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abcd1234")
	ctx = ContextWithStage(ctx, "gold")

	Ctx(ctx).Info().Msg("stage finished")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation_id field, got: %s", out)
	}
	if !strings.Contains(out, `"stage":"gold"`) {
		t.Errorf("expected stage field, got: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	l := WithComponent("bronze")
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"bronze"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}

	// A logger swapped in later is picked up by new component loggers.
	var next bytes.Buffer
	SetLogger(NewTestLogger(&next))
	sl := WithComponent("silver")
	sl.Warn().Msg("again")
	if !strings.Contains(next.String(), `"component":"silver"`) || strings.Contains(buf.String(), "again") {
		t.Errorf("component logger not bound to the current logger: %q / %q", next.String(), buf.String())
	}
}
