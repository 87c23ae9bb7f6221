package provider

import (
	"context"
	"encoding/json"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/pkg/apollo"
)

// ApolloAdapter enriches a lead from the Apollo.io person graph and proposes
// fill-ins for empty contact fields.
type ApolloAdapter struct {
	client apollo.Client
}

// NewApolloAdapter creates the Apollo enrichment adapter.
func NewApolloAdapter(client apollo.Client) *ApolloAdapter {
	return &ApolloAdapter{client: client}
}

func (a *ApolloAdapter) Name() model.Kind {
	return model.KindApollo
}

func (a *ApolloAdapter) Enrich(ctx context.Context, lead model.LeadSnapshot) Outcome {
	if lead.FirstName == "" || lead.LastName == "" {
		return Failure("first name and last name required")
	}
	if a.client == nil {
		return Failure("Apollo API key not configured")
	}

	resp, err := a.client.MatchPerson(ctx, apollo.MatchRequest{
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		OrganizationName: lead.Company,
		LinkedInURL:      lead.LinkedInURL,
	})
	if err != nil {
		return Failure(err.Error())
	}
	if resp.Person == nil {
		return Failure("no matching person found")
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return Failure(err.Error())
	}

	// Fill-ins apply only where the lead field is still empty; the store
	// re-checks emptiness when the task completes.
	var updates []model.FieldUpdate
	p := resp.Person
	if lead.Email == "" && p.Email != "" {
		updates = append(updates, model.FieldUpdate{Field: model.FieldEmail, Value: p.Email})
	}
	if lead.Phone == "" && p.Phone != "" {
		updates = append(updates, model.FieldUpdate{Field: model.FieldPhone, Value: p.Phone})
	}
	if lead.Title == "" && p.Title != "" {
		updates = append(updates, model.FieldUpdate{Field: model.FieldTitle, Value: p.Title})
	}
	if lead.LinkedInURL == "" && p.LinkedInURL != "" {
		updates = append(updates, model.FieldUpdate{Field: model.FieldLinkedInURL, Value: p.LinkedInURL})
	}

	return Success(payload, updates)
}
