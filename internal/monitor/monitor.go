// Package monitor reconciles pending settlement records against the
// chain. It only confirms or flags records; business state transitions
// stay in the logic layer.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/ethereum"
	"github.com/0xdevcollins/boundless-backend/internal/logger"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gorm.io/gorm"
)

const (
	pollInterval = 30 * time.Second
	batchSize    = 50
	staleAfter   = 24 * time.Hour
	maxScanRange = 2000
)

// chainReader is the slice of the chain client the monitor needs to
// confirm individual transactions.
type chainReader interface {
	IsTransactionConfirmed(ctx context.Context, txHash common.Hash) (bool, uint64, error)
}

// chainScanner walks escrow contract logs for drift detection.
type chainScanner interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)
	ParseEvent(log types.Log) (*ethereum.EscrowEvent, error)
}

type Monitor struct {
	db        *gorm.DB
	client    chainReader
	scanner   chainScanner
	nextBlock uint64
	stop      chan struct{}
	done      chan struct{}
}

func New(db *gorm.DB, client *ethereum.Client) *Monitor {
	return &Monitor{
		db:        db,
		client:    client,
		scanner:   client,
		nextBlock: client.GetStartBlock(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the reconciliation loop until Stop is called.
func (m *Monitor) Start() {
	logger.Info("settlement monitor started, poll interval: %s", pollInterval)
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
	logger.Info("settlement monitor stopped")
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
			m.reconcile(ctx)
			m.scanDrift(ctx)
			cancel()
		}
	}
}

// reconcile confirms pending settlement records whose transactions are
// buried under the confirmation depth, and flags records that stayed
// pending for too long.
func (m *Monitor) reconcile(ctx context.Context) {
	var records []model.SettlementRecord
	err := m.db.WithContext(ctx).
		Where("status = ?", model.SettlementStatusPending).
		Order("id asc").
		Limit(batchSize).
		Find(&records).Error
	if err != nil {
		logger.Error("failed to load pending settlement records: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	logger.Debug("reconciling %d pending settlement records", len(records))

	for _, record := range records {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.reconcileRecord(ctx, record)
	}
}

func (m *Monitor) reconcileRecord(ctx context.Context, record model.SettlementRecord) {
	var (
		confirmed bool
		block     uint64
	)

	check := func() error {
		var err error
		confirmed, block, err = m.client.IsTransactionConfirmed(ctx, common.HexToHash(record.TxHash))
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(check, policy); err != nil {
		logger.Warn("settlement record %d: confirmation check failed: %v", record.Id, err)
		return
	}

	if confirmed {
		now := time.Now()
		err := m.db.WithContext(ctx).Model(&model.SettlementRecord{}).
			Where("id = ? AND status = ?", record.Id, model.SettlementStatusPending).
			Updates(map[string]interface{}{
				"status":       model.SettlementStatusConfirmed,
				"block_number": block,
				"confirmed_at": &now,
				"updated_at":   now,
			}).Error
		if err != nil {
			logger.Error("settlement record %d: failed to mark confirmed: %v", record.Id, err)
			return
		}
		logger.Info("settlement record %d confirmed at block %d, tx: %s", record.Id, block, record.TxHash)
		return
	}

	if time.Since(record.CreatedAt) > staleAfter {
		err := m.db.WithContext(ctx).Model(&model.SettlementRecord{}).
			Where("id = ? AND status = ?", record.Id, model.SettlementStatusPending).
			Update("status", model.SettlementStatusFailed).Error
		if err != nil {
			logger.Error("settlement record %d: failed to mark failed: %v", record.Id, err)
			return
		}
		logger.Warn("settlement record %d marked failed, tx %s unconfirmed after %s", record.Id, record.TxHash, staleAfter)
	}
}

// scanDrift walks new escrow contract logs and flags chain events that
// have no matching local settlement record. Drift is only logged; the
// logic layer owns every business state transition.
func (m *Monitor) scanDrift(ctx context.Context) {
	if m.scanner == nil {
		return
	}

	latest, err := m.scanner.GetLatestBlock(ctx)
	if err != nil {
		logger.Warn("failed to fetch latest block: %v", err)
		return
	}
	if latest < m.nextBlock {
		return
	}

	to := latest
	if to-m.nextBlock >= maxScanRange {
		to = m.nextBlock + maxScanRange - 1
	}

	logs, err := m.scanner.GetLogs(ctx, m.nextBlock, to)
	if err != nil {
		logger.Warn("failed to fetch escrow logs for blocks %d-%d: %v", m.nextBlock, to, err)
		return
	}

	for _, log := range logs {
		event, err := m.scanner.ParseEvent(log)
		if err != nil {
			logger.Debug("skipping log in block %d: %v", log.BlockNumber, err)
			continue
		}
		m.checkDrift(ctx, event)
	}

	m.nextBlock = to + 1
}

func (m *Monitor) checkDrift(ctx context.Context, event *ethereum.EscrowEvent) {
	var count int64
	err := m.db.WithContext(ctx).Model(&model.SettlementRecord{}).
		Where("LOWER(tx_hash) = ?", strings.ToLower(event.TxHash)).
		Count(&count).Error
	if err != nil {
		logger.Error("drift check for tx %s failed: %v", event.TxHash, err)
		return
	}
	if count == 0 {
		logger.Warn("chain drift: %s in tx %s (block %d, reference %d) has no settlement record",
			event.Type, event.TxHash, event.BlockNumber, event.Reference)
	}
}
