// Package ethereum is the read-only chain client behind the settlement
// reconciliation monitor. Submission and signing live in the external
// Escrow Settlement Service; this client only observes.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Client struct {
	client        *ethclient.Client
	contractAddr  common.Address
	startBlock    uint64
	confirmations int
	contractABI   abi.ABI
}

// Escrow settlement contract ABI (events only).
const contractABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "reference", "type": "uint256"},
			{"indexed": true, "name": "payer", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "EscrowLocked",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "reference", "type": "uint256"},
			{"indexed": false, "name": "milestoneIndex", "type": "uint256"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "EscrowReleased",
		"type": "event"
	}
]`

func Init(cfg config.ChainConfig) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow contract ABI: %w", err)
	}

	return &Client{
		client:        client,
		contractAddr:  common.HexToAddress(cfg.ContractAddr),
		startBlock:    cfg.StartBlock,
		confirmations: cfg.Confirmations,
		contractABI:   parsedABI,
	}, nil
}

// GetStartBlock returns the configured first block to scan.
func (c *Client) GetStartBlock() uint64 {
	return c.startBlock
}

// GetLatestBlock returns the current chain head number.
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// GetLogs fetches escrow contract logs in a block range.
func (c *Client) GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contractAddr},
	}
	return c.client.FilterLogs(ctx, query)
}

// EscrowEvent is one decoded settlement contract event.
type EscrowEvent struct {
	Type           string
	Reference      uint64
	MilestoneIndex uint64
	Amount         *big.Int
	TxHash         string
	BlockNumber    uint64
}

// ParseEvent decodes a log into an EscrowEvent; unknown signatures are
// an error the caller may skip.
func (c *Client) ParseEvent(log types.Log) (*EscrowEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}

	event := &EscrowEvent{
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
	}

	switch log.Topics[0].Hex() {
	case c.contractABI.Events["EscrowLocked"].ID.Hex():
		if len(log.Topics) < 3 {
			return nil, fmt.Errorf("invalid EscrowLocked event: insufficient topics")
		}
		event.Type = "EscrowLocked"
		event.Reference = new(big.Int).SetBytes(log.Topics[1].Bytes()).Uint64()
		if len(log.Data) > 0 {
			event.Amount = new(big.Int).SetBytes(log.Data)
		}
	case c.contractABI.Events["EscrowReleased"].ID.Hex():
		if len(log.Topics) < 2 {
			return nil, fmt.Errorf("invalid EscrowReleased event: insufficient topics")
		}
		event.Type = "EscrowReleased"
		event.Reference = new(big.Int).SetBytes(log.Topics[1].Bytes()).Uint64()
		if len(log.Data) >= 64 {
			event.MilestoneIndex = new(big.Int).SetBytes(log.Data[:32]).Uint64()
			event.Amount = new(big.Int).SetBytes(log.Data[32:64])
		}
	default:
		return nil, fmt.Errorf("unknown event signature: %s", log.Topics[0].Hex())
	}
	return event, nil
}

// GetTransactionReceipt looks up a settlement transaction receipt.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.client.TransactionReceipt(ctx, txHash)
}

// IsTransactionConfirmed reports whether a transaction is buried under
// the configured confirmation depth. The receipt block number is
// returned for bookkeeping.
func (c *Client) IsTransactionConfirmed(ctx context.Context, txHash common.Hash) (bool, uint64, error) {
	receipt, err := c.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return false, 0, err
	}
	if receipt == nil {
		return false, 0, nil
	}

	latestBlock, err := c.GetLatestBlock(ctx)
	if err != nil {
		return false, 0, err
	}

	block := receipt.BlockNumber.Uint64()
	return latestBlock >= block+uint64(c.confirmations), block, nil
}
