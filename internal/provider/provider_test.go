package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrichment/internal/model"
)

type stubAdapter struct {
	kind    model.Kind
	outcome Outcome
}

func (s *stubAdapter) Name() model.Kind { return s.kind }

func (s *stubAdapter) Enrich(context.Context, model.LeadSnapshot) Outcome { return s.outcome }

func TestOutcome_Success(t *testing.T) {
	payload := json.RawMessage(`{"ok":true}`)
	updates := []model.FieldUpdate{{Field: model.FieldEmail, Value: "j@a.com"}}

	out := Success(payload, updates)
	assert.True(t, out.OK)
	assert.Equal(t, payload, out.Payload)
	assert.Equal(t, updates, out.Updates)
	assert.Empty(t, out.Reason)
}

func TestOutcome_Failure(t *testing.T) {
	out := Failure("website URL required for scraping")
	assert.False(t, out.OK)
	assert.Equal(t, "website URL required for scraping", out.Reason)
	assert.Nil(t, out.Payload)
	assert.Nil(t, out.Updates)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(model.KindEmail))
	assert.Empty(t, r.Kinds())

	email := &stubAdapter{kind: model.KindEmail}
	ai := &stubAdapter{kind: model.KindAI}
	r.Register(email)
	r.Register(ai)

	assert.Equal(t, email, r.Get(model.KindEmail))
	assert.Equal(t, ai, r.Get(model.KindAI))
	assert.Nil(t, r.Get(model.KindScraper))
	assert.ElementsMatch(t, []model.Kind{model.KindEmail, model.KindAI}, r.Kinds())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := &stubAdapter{kind: model.KindEmail}
	second := &stubAdapter{kind: model.KindEmail}

	r.Register(first)
	r.Register(second)

	require.Equal(t, second, r.Get(model.KindEmail))
	assert.Len(t, r.Kinds(), 1)
}
