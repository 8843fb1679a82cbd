package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
)

// DomainResponse is the JSON form of a domain record.
type DomainResponse struct {
	Name         string `json:"name"`
	Controller   string `json:"controller"`
	RegisteredAt string `json:"registered_at"`
	FeePaid      string `json:"fee_paid"`
}

type SubdomainResponse struct {
	Name         string `json:"name"`
	FQDN         string `json:"fqdn"`
	Parent       string `json:"parent"`
	Controller   string `json:"controller"`
	RegisteredAt string `json:"registered_at"`
	FeePaid      string `json:"fee_paid"`
}

type DomainListResponse struct {
	Domains []string `json:"domains"`
	Count   int      `json:"count"`
}

type SubdomainListResponse struct {
	Parent     string              `json:"parent"`
	Subdomains []SubdomainResponse `json:"subdomains"`
	Count      int                 `json:"count"`
}

type ControllerResponse struct {
	Name       string `json:"name"`
	Parent     string `json:"parent,omitempty"`
	Controller string `json:"controller"`
}

type FeeResponse struct {
	Fee string `json:"fee"`
}

type WithdrawalResponse struct {
	ID          string `json:"id,omitempty"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	RequestedBy string `json:"requested_by"`
	WithdrawnAt string `json:"withdrawn_at"`
	Status      string `json:"status,omitempty"`
}

type TreasuryResponse struct {
	Balance     string               `json:"balance"`
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
}

type EventResponse struct {
	Seq        int64  `json:"seq"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Parent     string `json:"parent,omitempty"`
	Controller string `json:"controller"`
	Timestamp  string `json:"timestamp"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func FromDomain(d *models.DomainRecord) DomainResponse {
	return DomainResponse{
		Name:         d.Name,
		Controller:   d.Controller.String(),
		RegisteredAt: formatTime(d.RegisteredAt),
		FeePaid:      d.FeePaid.String(),
	}
}

func FromSubdomain(s *models.SubdomainRecord) SubdomainResponse {
	return SubdomainResponse{
		Name:         s.Name,
		FQDN:         s.FQDN(),
		Parent:       s.Parent,
		Controller:   s.Controller.String(),
		RegisteredAt: formatTime(s.RegisteredAt),
		FeePaid:      s.FeePaid.String(),
	}
}

func FromSubdomains(parent string, subs []*models.SubdomainRecord) SubdomainListResponse {
	out := SubdomainListResponse{Parent: parent, Subdomains: make([]SubdomainResponse, 0, len(subs)), Count: len(subs)}
	for _, s := range subs {
		out.Subdomains = append(out.Subdomains, FromSubdomain(s))
	}
	return out
}

func FromWithdrawal(w models.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:          w.ID,
		Recipient:   w.Recipient.String(),
		Amount:      w.Amount.String(),
		Reference:   w.Reference,
		RequestedBy: w.RequestedBy.String(),
		WithdrawnAt: formatTime(w.WithdrawnAt),
		Status:      string(w.Status),
	}
}

func FromTreasury(balance decimal.Decimal, withdrawals []models.Withdrawal) TreasuryResponse {
	out := TreasuryResponse{Balance: balance.String(), Withdrawals: make([]WithdrawalResponse, 0, len(withdrawals))}
	for _, w := range withdrawals {
		out.Withdrawals = append(out.Withdrawals, FromWithdrawal(w))
	}
	return out
}

func FromEvents(events []models.RegistrationEvent) EventListResponse {
	out := EventListResponse{Events: make([]EventResponse, 0, len(events)), Count: len(events)}
	for _, e := range events {
		out.Events = append(out.Events, EventResponse{
			Seq:        e.Seq,
			Kind:       string(e.Kind),
			Name:       e.Name,
			Parent:     e.Parent,
			Controller: e.Controller.String(),
			Timestamp:  formatTime(e.Timestamp),
		})
	}
	return out
}
