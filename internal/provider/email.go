package provider

import (
	"context"
	"encoding/json"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/pkg/hunter"
)

// EmailAdapter validates an existing email address or discovers one from the
// lead's name and website domain via Hunter.io. With no client configured it
// degrades to syntax-only validation.
type EmailAdapter struct {
	client hunter.Client
}

// NewEmailAdapter creates the email enrichment adapter. A nil client enables
// the syntax-only fallback.
func NewEmailAdapter(client hunter.Client) *EmailAdapter {
	return &EmailAdapter{client: client}
}

func (a *EmailAdapter) Name() model.Kind {
	return model.KindEmail
}

// emailResult is the payload stored under the "email" kind.
type emailResult struct {
	Email      string `json:"email"`
	Valid      bool   `json:"valid"`
	Method     string `json:"method"`
	Status     string `json:"status,omitempty"`
	Score      int    `json:"score,omitempty"`
	Result     string `json:"result,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (a *EmailAdapter) Enrich(ctx context.Context, lead model.LeadSnapshot) Outcome {
	switch {
	case lead.Email != "":
		return a.verify(ctx, lead.Email)
	case lead.FirstName != "" && lead.LastName != "" && lead.Website != "":
		return a.find(ctx, lead)
	default:
		return Failure("insufficient data for email enrichment")
	}
}

func (a *EmailAdapter) verify(ctx context.Context, email string) Outcome {
	if a.client == nil {
		return syntaxCheck(email)
	}

	v, err := a.client.VerifyEmail(ctx, email)
	if err != nil {
		return Failure(err.Error())
	}

	payload, _ := json.Marshal(emailResult{
		Email:  email,
		Valid:  v.Valid(),
		Method: "verification",
		Status: v.Status,
		Score:  v.Score,
		Result: v.Result,
	})
	return Success(payload, nil)
}

func (a *EmailAdapter) find(ctx context.Context, lead model.LeadSnapshot) Outcome {
	if a.client == nil {
		return Failure("email discovery requires a Hunter API key")
	}

	domain := domainFromWebsite(lead.Website)
	if domain == "" {
		return Failure("could not derive domain from website URL")
	}

	f, err := a.client.FindEmail(ctx, domain, lead.FirstName, lead.LastName)
	if err != nil {
		return Failure(err.Error())
	}
	if f.Email == "" {
		return Failure("email not found")
	}

	zap.L().Debug("email discovered",
		zap.String("lead_id", lead.ID),
		zap.String("domain", domain),
		zap.Int("confidence", f.Score),
	)

	payload, _ := json.Marshal(emailResult{
		Email:      f.Email,
		Valid:      true,
		Method:     "finder",
		Confidence: f.Score,
		Pattern:    f.Pattern,
	})
	return Success(payload, []model.FieldUpdate{
		{Field: model.FieldEmail, Value: f.Email},
	})
}

// syntaxCheck validates address shape only. A malformed address is still a
// completed enrichment with valid=false, not a failed task.
func syntaxCheck(email string) Outcome {
	addr, err := mail.ParseAddress(email)
	if err != nil || !strings.Contains(addr.Address, ".") {
		payload, _ := json.Marshal(emailResult{
			Email:  email,
			Valid:  false,
			Method: "syntax",
			Error:  "address failed syntax validation",
		})
		return Success(payload, nil)
	}

	payload, _ := json.Marshal(emailResult{
		Email:  addr.Address,
		Valid:  true,
		Method: "syntax",
	})
	return Success(payload, nil)
}

// domainFromWebsite strips the scheme and path from a website URL.
func domainFromWebsite(website string) string {
	d := strings.TrimPrefix(website, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSpace(d)
}
