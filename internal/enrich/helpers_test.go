package enrich

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/provider"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "enrich.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestQueue() *queue.MemoryQueue {
	return queue.NewMemory(64)
}

func createLead(t *testing.T, s store.Store, lead *model.Lead) *model.Lead {
	t.Helper()
	require.NoError(t, s.CreateLead(context.Background(), lead))
	return lead
}

// fixedAdapter returns a canned outcome for every lead.
type fixedAdapter struct {
	kind    model.Kind
	outcome provider.Outcome
	calls   int
}

func (a *fixedAdapter) Name() model.Kind { return a.kind }

func (a *fixedAdapter) Enrich(context.Context, model.LeadSnapshot) provider.Outcome {
	a.calls++
	return a.outcome
}

// fnAdapter delegates to a function, for timeout and panic scenarios.
type fnAdapter struct {
	kind model.Kind
	fn   func(ctx context.Context, lead model.LeadSnapshot) provider.Outcome
}

func (a *fnAdapter) Name() model.Kind { return a.kind }

func (a *fnAdapter) Enrich(ctx context.Context, lead model.LeadSnapshot) provider.Outcome {
	return a.fn(ctx, lead)
}

func queueFillerMessage() queue.Message {
	return queue.Message{TaskID: "filler", LeadID: "filler", Kind: model.KindAI}
}

func successPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
