package chain

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"vaultQuote/internal/codec"
	"vaultQuote/internal/contracts"
)

// Call is one target/calldata pair submitted through the multicall contract.
// Field names line up with the aggregate input tuple components.
type Call struct {
	Target   common.Address
	CallData []byte
}

// Executor is the batched read transport used by the fetch orchestrator.
type Executor interface {
	ExecuteRaw(ctx context.Context, calls []Call) ([][]byte, error)
	Execute(ctx context.Context, calls []Call, contractABI abi.ABI, method string) ([][]interface{}, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Chain submits batched read-only calls to a multicall contract, picking one
// endpoint uniformly at random per invocation. There is no retry here: a
// failed batch fails the calling fetch operation.
type Chain struct {
	chainID   uint64
	endpoints []string
	multicall common.Address
	logger    *zap.Logger

	pick func(n int) int
}

// New builds a Chain from the configured endpoint pool and multicall address.
func New(chainID uint64, endpoints []string, multicallAddress string, logger *zap.Logger) (*Chain, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one rpc endpoint is required")
	}
	if !common.IsHexAddress(multicallAddress) {
		return nil, fmt.Errorf("invalid multicall address %q", multicallAddress)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		chainID:   chainID,
		endpoints: endpoints,
		multicall: common.HexToAddress(multicallAddress),
		logger:    logger,
		pick:      rand.Intn,
	}, nil
}

// ChainID returns the configured chain id.
func (c *Chain) ChainID() uint64 {
	return c.chainID
}

// Endpoint picks one endpoint uniformly at random from the configured pool.
func (c *Chain) Endpoint() string {
	return c.endpoints[c.pick(len(c.endpoints))]
}

// ExecuteRaw submits all calls as one aggregate invocation and returns the
// per-call return payloads in input order. The aggregate block number is
// discarded.
func (c *Chain) ExecuteRaw(ctx context.Context, calls []Call) ([][]byte, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	multicallABI, err := contracts.Multicall()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}
	data, err := multicallABI.Pack("aggregate", calls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate: %w", err)
	}

	endpoint := c.Endpoint()
	c.logger.Debug("execute multicall", zap.String("endpoint", endpoint), zap.Int("calls", len(calls)))

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer client.Close()

	target := c.multicall
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call aggregate: %w", err)
	}

	values, err := multicallABI.Unpack("aggregate", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("aggregate returned %d values, want 2", len(values))
	}
	returnData, ok := values[1].([][]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected aggregate return type %T", values[1])
	}
	if len(returnData) != len(calls) {
		return nil, fmt.Errorf("aggregate returned %d results for %d calls", len(returnData), len(calls))
	}
	return returnData, nil
}

// Execute runs ExecuteRaw and decodes every result with the given interface
// description and method name. Results keep the input order.
func (c *Chain) Execute(ctx context.Context, calls []Call, contractABI abi.ABI, method string) ([][]interface{}, error) {
	returnData, err := c.ExecuteRaw(ctx, calls)
	if err != nil {
		return nil, err
	}
	decoded := make([][]interface{}, len(returnData))
	for i, data := range returnData {
		values, err := codec.DecodeReturn(contractABI, method, data)
		if err != nil {
			return nil, fmt.Errorf("decode result %d: %w", i, err)
		}
		decoded[i] = values
	}
	return decoded, nil
}

// NativeBalance reads an account's native balance directly, bypassing multicall.
func (c *Chain) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	endpoint := c.Endpoint()
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer client.Close()

	balance, err := client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("get native balance: %w", err)
	}
	return balance, nil
}
