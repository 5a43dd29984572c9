// Package logic holds the business rules of the funding and milestone
// escrow lifecycle. Each type owns one component's invariants and talks
// to collaborators through the narrow interfaces below, so tests can
// stub the settlement service and the emitter.
package logic

import (
	"context"
	"strings"
)

// EventEmitter is the notification/audit collaborator. Fire-and-forget:
// implementations never return errors to the caller.
type EventEmitter interface {
	Emit(eventType string, targetType string, targetId int64, payload map[string]interface{})
}

// EscrowProvisioner creates the escrow contract for an approved
// campaign on the settlement layer.
type EscrowProvisioner interface {
	Provision(ctx context.Context, campaignId int64, goalAmount int64) (string, error)
}

// EscrowReleaser pays out one milestone from an escrow contract.
type EscrowReleaser interface {
	Release(ctx context.Context, escrowRef string, milestoneIndex int) (string, error)
}

// NopEmitter discards events. Used where no emitter is wired.
type NopEmitter struct{}

func (NopEmitter) Emit(string, string, int64, map[string]interface{}) {}

// equalAddress compares settlement addresses case-insensitively.
func equalAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
