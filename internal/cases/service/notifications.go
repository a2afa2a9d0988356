package service

import (
	"strconv"

	"golang.org/x/text/language"

	"caseflow/internal/cases/models"
	"caseflow/internal/notify"
	"caseflow/internal/pricing"
	"caseflow/internal/provider"
)

const dateLayout = "2006-01-02"

func caseSubstitutions(c *models.Case) map[string]string {
	return map[string]string{
		"case_id":   strconv.FormatInt(c.ID, 10),
		"case_name": c.CaseName,
		"case_type": c.CaseType,
		"stage":     string(c.Stage),
		"requestor": c.Requestor,
	}
}

func notification(template notify.TemplateID, c *models.Case, extra map[string]string) notify.Notification {
	subs := caseSubstitutions(c)
	for k, v := range extra {
		subs[k] = v
	}
	return notify.Notification{TemplateID: template, CaseID: c.ID, ClientID: c.ClientID, Substitutions: subs}
}

// conversionNotifications builds the stage-change notice, the lite invitation
// and at most one sanctioned-country notice for a committed conversion.
func (s *Service) conversionNotifications(c *models.Case, sel provider.Selection, quote pricing.Quote, sanctionedCountry string) []notify.Notification {
	template := notify.TemplateConvertedBudgetApproved
	if c.Stage == models.StageAssigned {
		template = notify.TemplateConvertedAwaitingBudget
	}
	extra := map[string]string{
		"provider_name":   sel.ProviderName,
		"turnaround_days": strconv.Itoa(quote.TurnaroundDays),
		"due_date":        quote.DueDate.Format(dateLayout),
	}
	if quote.BudgetNegotiation {
		extra["budget_amount"] = "to be negotiated"
	} else {
		extra["budget_amount"] = pricing.FormatCents(quote.BudgetAmountCents, s.currency, language.English)
	}
	notes := []notify.Notification{notification(template, c, extra)}

	if sel.IsLite {
		notes = append(notes, notification(notify.TemplateLiteInvitation, c, map[string]string{
			"provider_name": sel.ProviderName,
			"access_token":  c.LiteAccessToken,
			"due_date":      quote.DueDate.Format(dateLayout),
		}))
	}
	if sanctionedCountry != "" {
		notes = append(notes, notification(notify.TemplateSanctionedCountry, c, map[string]string{
			"country": sanctionedCountry,
		}))
	}
	return notes
}
