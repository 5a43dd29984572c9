package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/database"
	"github.com/0xdevcollins/boundless-backend/internal/ethereum"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
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

type stubChain struct {
	confirmed map[string]uint64
	err       error
}

func (s *stubChain) IsTransactionConfirmed(_ context.Context, txHash common.Hash) (bool, uint64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	block, ok := s.confirmed[strings.ToLower(txHash.Hex())]
	return ok, block, nil
}

func testTxHash(n byte) string {
	return "0x" + strings.Repeat(string("0123456789abcdef"[n%16]), 64)
}

func TestReconcileConfirmsBuriedTransactions(t *testing.T) {
	db := newTestDB(t)

	buried := testTxHash(1)
	floating := testTxHash(2)
	require.NoError(t, db.Create(&model.SettlementRecord{
		Kind: model.SettlementKindLock, TxHash: buried, Status: model.SettlementStatusPending,
	}).Error)
	require.NoError(t, db.Create(&model.SettlementRecord{
		Kind: model.SettlementKindRelease, TxHash: floating, Status: model.SettlementStatusPending,
	}).Error)

	m := &Monitor{db: db, client: &stubChain{confirmed: map[string]uint64{buried: 1234}}}
	m.reconcile(context.Background())

	var record model.SettlementRecord
	require.NoError(t, db.Where("tx_hash = ?", buried).First(&record).Error)
	assert.Equal(t, model.SettlementStatusConfirmed, record.Status)
	assert.Equal(t, uint64(1234), record.BlockNumber)
	require.NotNil(t, record.ConfirmedAt)

	var floatingRecord model.SettlementRecord
	require.NoError(t, db.Where("tx_hash = ?", floating).First(&floatingRecord).Error)
	assert.Equal(t, model.SettlementStatusPending, floatingRecord.Status)
}

func TestReconcileMarksStaleRecordsFailed(t *testing.T) {
	db := newTestDB(t)

	stale := testTxHash(3)
	require.NoError(t, db.Create(&model.SettlementRecord{
		Kind: model.SettlementKindLock, TxHash: stale, Status: model.SettlementStatusPending,
	}).Error)
	require.NoError(t, db.Model(&model.SettlementRecord{}).
		Where("tx_hash = ?", stale).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	m := &Monitor{db: db, client: &stubChain{}}
	m.reconcile(context.Background())

	var record model.SettlementRecord
	require.NoError(t, db.Where("tx_hash = ?", stale).First(&record).Error)
	assert.Equal(t, model.SettlementStatusFailed, record.Status)
}

func TestReconcileChainErrorsLeaveRecordsPending(t *testing.T) {
	db := newTestDB(t)

	pending := testTxHash(4)
	require.NoError(t, db.Create(&model.SettlementRecord{
		Kind: model.SettlementKindProvision, TxHash: pending, Status: model.SettlementStatusPending,
	}).Error)

	m := &Monitor{db: db, client: &stubChain{err: errors.New("rpc unavailable")}}
	m.reconcile(context.Background())

	var record model.SettlementRecord
	require.NoError(t, db.Where("tx_hash = ?", pending).First(&record).Error)
	assert.Equal(t, model.SettlementStatusPending, record.Status)
}

type stubScanner struct {
	latest   uint64
	events   []*ethereum.EscrowEvent
	errLogs  error
	scanFrom uint64
	scanTo   uint64
}

func (s *stubScanner) GetLatestBlock(_ context.Context) (uint64, error) {
	return s.latest, nil
}

func (s *stubScanner) GetLogs(_ context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	s.scanFrom, s.scanTo = fromBlock, toBlock
	if s.errLogs != nil {
		return nil, s.errLogs
	}
	return make([]types.Log, len(s.events)), nil
}

func (s *stubScanner) ParseEvent(_ types.Log) (*ethereum.EscrowEvent, error) {
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func TestScanDriftAdvancesCursor(t *testing.T) {
	db := newTestDB(t)

	known := testTxHash(5)
	require.NoError(t, db.Create(&model.SettlementRecord{
		Kind: model.SettlementKindLock, TxHash: known, Status: model.SettlementStatusConfirmed,
	}).Error)

	scanner := &stubScanner{
		latest: 150,
		events: []*ethereum.EscrowEvent{
			{Type: "EscrowLocked", Reference: 7, TxHash: known, BlockNumber: 120},
			{Type: "EscrowReleased", Reference: 8, TxHash: testTxHash(6), BlockNumber: 130},
		},
	}
	m := &Monitor{db: db, scanner: scanner, nextBlock: 100}
	m.scanDrift(context.Background())

	assert.Equal(t, uint64(100), scanner.scanFrom)
	assert.Equal(t, uint64(150), scanner.scanTo)
	assert.Equal(t, uint64(151), m.nextBlock)
}

func TestScanDriftKeepsCursorOnFetchError(t *testing.T) {
	db := newTestDB(t)

	scanner := &stubScanner{latest: 150, errLogs: errors.New("rpc unavailable")}
	m := &Monitor{db: db, scanner: scanner, nextBlock: 100}
	m.scanDrift(context.Background())

	assert.Equal(t, uint64(100), m.nextBlock)
}

func TestScanDriftCapsBlockRange(t *testing.T) {
	db := newTestDB(t)

	scanner := &stubScanner{latest: 10000}
	m := &Monitor{db: db, scanner: scanner, nextBlock: 100}
	m.scanDrift(context.Background())

	assert.Equal(t, uint64(100+maxScanRange-1), scanner.scanTo)
	assert.Equal(t, uint64(100+maxScanRange), m.nextBlock)
}
