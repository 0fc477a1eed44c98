package payout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	templateInvestmentMatured    = "investment-matured"
	templateInvestmentReinvested = "investment-reinvested"
)

// afterCommit runs the follow ups of a committed settlement. They share one
// deadline, detached from batch cancellation, and their failures are alerted
// without touching the settlement.
func (s *SettlementService) afterCommit(ctx context.Context, st *Settlement) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PostCommitTimeout)
	defer cancel()

	log := s.deps.Logger.With(zap.String("job", SettlementJobName), zap.String("investment_id", st.InvestmentID.String()))
	userID := st.User.ID

	fail := func(tag string, err error) {
		log.Warn("Post-settlement step failed", zap.String("step", tag), zap.Error(err))
		s.deps.Alerter.Alert(ctx, Alert{
			UserID:   &userID,
			UserName: st.User.FullName(),
			Message:  fmt.Sprintf("Investment %s settled but %s failed: %v", st.InvestmentID, tag, err),
			Channel:  ChannelFailure,
			Tag:      tag,
			Detail:   map[string]any{"investment_id": st.InvestmentID.String()},
		})
	}

	var deedLink string
	if st.NewInvestment != nil && s.deps.Deeds != nil {
		link, err := s.deps.Deeds.RenderDeed(ctx, DeedPayload{
			InvestmentID: st.NewInvestment.ID,
			InvestorName: st.User.FullName(),
			Email:        st.User.Email,
			ProjectName:  st.Target.ProjectName,
			Amount:       st.NewInvestment.Amount.StringFixed(s.cfg.MoneyScale),
			Tokens:       st.NewInvestment.Tokens.String(),
			Category:     string(st.NewInvestment.Category),
			Duration:     st.NewInvestment.Duration,
			StartDate:    st.NewInvestment.StartDate,
			EndDate:      st.NewInvestment.EndDate,
			IssuedAt:     st.SettledAt,
		})
		if err != nil {
			fail("deed", err)
		} else {
			deedLink = link
		}
	}

	if s.deps.Mailer != nil {
		template, msg := s.settlementEmail(st, deedLink)
		if err := s.deps.Mailer.SendTemplateEmail(ctx, template, msg); err != nil {
			fail("email", err)
		}
	}

	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Enqueue(ctx, s.settlementNotification(st)); err != nil {
			fail("notification", err)
		}
	}

	s.deps.Alerter.Alert(ctx, Alert{
		UserID:   &userID,
		UserName: st.User.FullName(),
		Message: fmt.Sprintf("Investment %s in %s settled via %s: credited %s, reinvested %s",
			st.InvestmentID, st.Listing.ProjectName, st.Decision.Branch,
			st.Decision.Credit.StringFixed(s.cfg.MoneyScale), st.Decision.Reinvest.StringFixed(s.cfg.MoneyScale)),
		Channel: ChannelSuccess,
		Tag:     SettlementJobName,
		Detail: map[string]any{
			"investment_id": st.InvestmentID.String(),
			"branch":        st.Decision.Branch.String(),
			"final_return":  st.FinalReturn.String(),
		},
	})
}

func (s *SettlementService) settlementEmail(st *Settlement, deedLink string) (string, EmailMessage) {
	props := map[string]any{
		"name":         st.User.FullName(),
		"project_name": st.Listing.ProjectName,
		"final_return": st.FinalReturn.StringFixed(s.cfg.MoneyScale),
		"credited":     st.Decision.Credit.StringFixed(s.cfg.MoneyScale),
		"reinvested":   st.Decision.Reinvest.StringFixed(s.cfg.MoneyScale),
		"currency":     s.cfg.Currency,
	}
	if st.NewInvestment == nil {
		return templateInvestmentMatured, EmailMessage{
			To:      st.User.Email,
			Subject: "Your investment has matured",
			Props:   props,
		}
	}
	props["new_investment_id"] = st.NewInvestment.ID.String()
	props["target_project_name"] = st.Target.ProjectName
	props["end_date"] = st.NewInvestment.EndDate.Format("2006-01-02")
	if deedLink != "" {
		props["deed_link"] = deedLink
	}
	return templateInvestmentReinvested, EmailMessage{
		To:      st.User.Email,
		Subject: "Your investment has been reinvested",
		Props:   props,
	}
}

func (s *SettlementService) settlementNotification(st *Settlement) Notification {
	n := Notification{
		UserID:     st.User.ID,
		Category:   "wallet",
		ActionLink: s.cfg.AppBaseURL + "/wallet",
	}
	switch {
	case st.NewInvestment == nil:
		n.Title = "Wallet funded"
		n.Content = fmt.Sprintf("Your investment in %s has matured and %s %s was credited to your wallet.",
			st.Listing.ProjectName, s.cfg.Currency, st.Decision.Credit.StringFixed(s.cfg.MoneyScale))
	case st.Decision.Credit.IsPositive():
		n.Title = "Wallet funded"
		n.Content = fmt.Sprintf("Your investment in %s has matured. %s %s was credited to your wallet and %s %s was reinvested in %s.",
			st.Listing.ProjectName, s.cfg.Currency, st.Decision.Credit.StringFixed(s.cfg.MoneyScale),
			s.cfg.Currency, st.Decision.Reinvest.StringFixed(s.cfg.MoneyScale), st.Target.ProjectName)
	default:
		n.Title = "Investment reinvested"
		n.Category = "investment"
		n.ActionLink = s.cfg.AppBaseURL + "/investments/" + st.NewInvestment.ID.String()
		n.Content = fmt.Sprintf("Your investment in %s has matured and %s %s was reinvested in %s.",
			st.Listing.ProjectName, s.cfg.Currency, st.Decision.Reinvest.StringFixed(s.cfg.MoneyScale), st.Target.ProjectName)
	}
	return n
}
