package logic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/0xdevcollins/boundless-backend/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	addrAdmin       = "0x00000000000000000000000000000000000000ad"
	addrOwner       = "0x0000000000000000000000000000000000000001"
	addrTeamMember  = "0x0000000000000000000000000000000000000002"
	addrContributor = "0x0000000000000000000000000000000000000003"
	addrApplicant   = "0x0000000000000000000000000000000000000004"
	addrOutsider    = "0x0000000000000000000000000000000000000005"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// testTxHash builds a distinct well-formed settlement tx hash.
func testTxHash(n byte) string {
	return "0x" + strings.Repeat(fmt.Sprintf("%02x", n), 32)
}

type stubProvisioner struct {
	contractRef string
	err         error
	calls       int
}

func (s *stubProvisioner) Provision(_ context.Context, _ int64, _ int64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.contractRef, nil
}

type stubReleaser struct {
	txHash string
	err    error
	calls  int
}

func (s *stubReleaser) Release(_ context.Context, _ string, _ int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.txHash, nil
}

type emittedEvent struct {
	EventType  string
	TargetType string
	TargetId   int64
	Payload    map[string]interface{}
}

// recordingEmitter captures events synchronously for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (r *recordingEmitter) Emit(eventType string, targetType string, targetId int64, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emittedEvent{eventType, targetType, targetId, payload})
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}
