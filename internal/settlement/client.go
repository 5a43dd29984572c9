// Package settlement is the HTTP client for the external Escrow
// Settlement Service. Every failure — network, timeout or a rejected
// settlement — surfaces as an EscrowService error and the caller is
// guaranteed no local state was touched on its behalf.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/go-resty/resty/v2"
)

type Client struct {
	http *resty.Client
}

func NewClient(cfg config.SettlementConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		http.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{http: http}
}

type provisionRequest struct {
	CampaignId int64 `json:"campaign_id"`
	GoalAmount int64 `json:"goal_amount"`
}

type provisionResponse struct {
	ContractRef string `json:"contract_ref"`
}

// Provision creates the escrow contract for an approved campaign and
// returns its reference.
func (c *Client) Provision(ctx context.Context, campaignId int64, goalAmount int64) (string, error) {
	var out provisionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(provisionRequest{CampaignId: campaignId, GoalAmount: goalAmount}).
		SetResult(&out).
		Post("/escrow/provision")
	if err != nil {
		return "", apperr.EscrowService("escrow provisioning failed", err)
	}
	if resp.IsError() {
		return "", apperr.EscrowService("escrow provisioning rejected", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	if out.ContractRef == "" {
		return "", apperr.EscrowService("escrow provisioning returned no contract reference", nil)
	}
	return out.ContractRef, nil
}

type lockRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type lockResponse struct {
	SettlementRef string `json:"settlement_ref"`
}

// Lock asks the settlement layer to hold funds against a reference.
func (c *Client) Lock(ctx context.Context, amount int64, reference string) (string, error) {
	var out lockResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(lockRequest{Amount: amount, Reference: reference}).
		SetResult(&out).
		Post("/escrow/lock")
	if err != nil {
		return "", apperr.EscrowService("escrow lock failed", err)
	}
	if resp.IsError() {
		return "", apperr.EscrowService("escrow lock rejected", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	if out.SettlementRef == "" {
		return "", apperr.EscrowService("escrow lock returned no settlement reference", nil)
	}
	return out.SettlementRef, nil
}

type releaseRequest struct {
	EscrowRef      string `json:"escrow_ref"`
	MilestoneIndex int    `json:"milestone_index"`
}

type releaseResponse struct {
	TxHash string `json:"tx_hash"`
}

// Release pays out one milestone from the escrow and returns the
// settlement transaction hash.
func (c *Client) Release(ctx context.Context, escrowRef string, milestoneIndex int) (string, error) {
	var out releaseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(releaseRequest{EscrowRef: escrowRef, MilestoneIndex: milestoneIndex}).
		SetResult(&out).
		Post("/escrow/release")
	if err != nil {
		return "", apperr.EscrowService("escrow release failed", err)
	}
	if resp.IsError() {
		return "", apperr.EscrowService("escrow release rejected", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	if out.TxHash == "" {
		return "", apperr.EscrowService("escrow release returned no transaction hash", nil)
	}
	return out.TxHash, nil
}
