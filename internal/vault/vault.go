package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"vaultQuote/internal/chain"
	"vaultQuote/internal/codec"
	"vaultQuote/internal/contracts"
	"vaultQuote/internal/model"
)

// Addresses holds the contract addresses one Vault reads from.
type Addresses struct {
	Vault      string
	PlpManager string
	PlpToken   string
	Gateway    string
}

// Vault orchestrates the batched reads that populate token and vault state,
// and carries the current VaultState snapshot for the pricing engine.
type Vault struct {
	executor   chain.Executor
	vaultAddr  common.Address
	plpManager common.Address
	plpToken   common.Address
	gateway    common.Address
	logger     *zap.Logger

	stateMu sync.RWMutex
	state   *model.VaultState

	gateMu     sync.Mutex
	infoReady  chan struct{}
	infoClosed bool
}

// New builds a Vault over the given executor.
func New(executor chain.Executor, addrs Addresses, logger *zap.Logger) (*Vault, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed := make(map[string]common.Address, 4)
	for name, addr := range map[string]string{
		"vault":       addrs.Vault,
		"plp_manager": addrs.PlpManager,
		"plp_token":   addrs.PlpToken,
		"gateway":     addrs.Gateway,
	} {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid %s address %q", name, addr)
		}
		parsed[name] = common.HexToAddress(addr)
	}
	return &Vault{
		executor:   executor,
		vaultAddr:  parsed["vault"],
		plpManager: parsed["plp_manager"],
		plpToken:   parsed["plp_token"],
		gateway:    parsed["gateway"],
		logger:     logger,
		infoReady:  make(chan struct{}),
	}, nil
}

// BeginRefresh re-arms the one-shot vault-info gate for a new refresh cycle.
func (v *Vault) BeginRefresh() {
	v.gateMu.Lock()
	defer v.gateMu.Unlock()
	v.infoReady = make(chan struct{})
	v.infoClosed = false
}

func (v *Vault) signalVaultInfoReady() {
	v.gateMu.Lock()
	defer v.gateMu.Unlock()
	if !v.infoClosed {
		close(v.infoReady)
		v.infoClosed = true
	}
}

func (v *Vault) vaultInfoReady() <-chan struct{} {
	v.gateMu.Lock()
	defer v.gateMu.Unlock()
	return v.infoReady
}

// State returns a deep copy of the current vault state, or nil before the
// first successful init.
func (v *Vault) State() *model.VaultState {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.state.Clone()
}

// SetState replaces the current vault state.
func (v *Vault) SetState(state *model.VaultState) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	v.state = state
}

// vaultScalars lists the zero-argument vault accessors read by InitVaultState,
// keyed by accessor name in batch order.
var vaultScalars = []string{
	"feeBasisPoints",
	"taxBasisPoints",
	"stableTaxBasisPoints",
	"mintBurnFeeBasisPoints",
	"swapFeeBasisPoints",
	"stableSwapFeeBasisPoints",
	"marginFeeBasisPoints",
	"hasDynamicFees",
	"inManagerMode",
	"isSwapEnabled",
	"borrowingRateInterval",
	"borrowingRateFactor",
	"stableBorrowingRateFactor",
	"totalTokenWeights",
}

// InitVaultState reads the vault's global configuration in three steps:
// resolve the USDP address, read AUM and supplies through it, then read the
// named scalar parameters via per-name selectors. The assembled state is
// returned without being published; the caller decides when to apply it.
func (v *Vault) InitVaultState(ctx context.Context) (*model.VaultState, error) {
	state := &model.VaultState{}

	// Step 1: resolve the pegged-stable-unit token address.
	usdpRaw, err := v.executor.ExecuteRaw(ctx, []chain.Call{
		{Target: v.vaultAddr, CallData: codec.VariableData("usdp")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch usdp address: %w", err)
	}
	usdpAddr, err := codec.DecodeWordAddress(usdpRaw[0])
	if err != nil {
		return nil, fmt.Errorf("decode usdp address: %w", err)
	}
	state.UsdpAddress = model.CanonicalAddress(usdpAddr.Hex())

	// Step 2: AUM, PLP supply, USDP supply. Depends on step 1's address.
	plpManagerABI, err := contracts.PlpManager()
	if err != nil {
		return nil, fmt.Errorf("parse plp manager abi: %w", err)
	}
	erc20ABI, err := contracts.ERC20()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	aumsData, err := codec.EncodeCall(plpManagerABI, "getAums")
	if err != nil {
		return nil, err
	}
	supplyData, err := codec.EncodeCall(erc20ABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	supplyRaw, err := v.executor.ExecuteRaw(ctx, []chain.Call{
		{Target: v.plpManager, CallData: aumsData},
		{Target: v.plpToken, CallData: supplyData},
		{Target: usdpAddr, CallData: supplyData},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch aum and supplies: %w", err)
	}

	aumValues, err := codec.DecodeReturn(plpManagerABI, "getAums", supplyRaw[0])
	if err != nil {
		return nil, fmt.Errorf("decode aums: %w", err)
	}
	aums, err := codec.AsBigIntSlice(aumValues[0])
	if err != nil {
		return nil, fmt.Errorf("decode aums: %w", err)
	}
	if len(aums) < 2 {
		return nil, fmt.Errorf("aums returned %d valuations, want 2", len(aums))
	}
	state.TotalAum = [2]*big.Int{aums[0], aums[1]}

	plpSupply, err := codec.DecodeWord(supplyRaw[1])
	if err != nil {
		return nil, fmt.Errorf("decode plp supply: %w", err)
	}
	state.PlpSupply = plpSupply

	usdpSupply, err := codec.DecodeWord(supplyRaw[2])
	if err != nil {
		return nil, fmt.Errorf("decode usdp supply: %w", err)
	}
	state.UsdpSupply = usdpSupply

	// Step 3: named scalar parameters via keccak-derived selectors.
	calls := make([]chain.Call, len(vaultScalars))
	for i, name := range vaultScalars {
		calls[i] = chain.Call{Target: v.vaultAddr, CallData: codec.VariableData(name)}
	}
	scalarRaw, err := v.executor.ExecuteRaw(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("fetch vault scalars: %w", err)
	}
	if err := applyVaultScalars(state, scalarRaw); err != nil {
		return nil, err
	}

	v.logger.Debug("vault state initialized",
		zap.String("usdp", state.UsdpAddress),
		zap.Uint64("fee_bps", state.FeeBasisPoints),
		zap.Bool("dynamic_fees", state.HasDynamicFees),
	)
	return state, nil
}

func applyVaultScalars(state *model.VaultState, raw [][]byte) error {
	if len(raw) != len(vaultScalars) {
		return fmt.Errorf("vault scalars returned %d results, want %d", len(raw), len(vaultScalars))
	}
	word := func(i int) (uint64, error) {
		n, err := codec.DecodeWord(raw[i])
		if err != nil {
			return 0, fmt.Errorf("decode %s: %w", vaultScalars[i], err)
		}
		if !n.IsUint64() {
			return 0, fmt.Errorf("decode %s: value out of range", vaultScalars[i])
		}
		return n.Uint64(), nil
	}
	flag := func(i int) (bool, error) {
		b, err := codec.DecodeWordBool(raw[i])
		if err != nil {
			return false, fmt.Errorf("decode %s: %w", vaultScalars[i], err)
		}
		return b, nil
	}

	var err error
	if state.FeeBasisPoints, err = word(0); err != nil {
		return err
	}
	if state.TaxBasisPoints, err = word(1); err != nil {
		return err
	}
	if state.StableTaxBasisPoints, err = word(2); err != nil {
		return err
	}
	if state.MintBurnFeeBasisPoints, err = word(3); err != nil {
		return err
	}
	if state.SwapFeeBasisPoints, err = word(4); err != nil {
		return err
	}
	if state.StableSwapFeeBasisPoints, err = word(5); err != nil {
		return err
	}
	if state.MarginFeeBasisPoints, err = word(6); err != nil {
		return err
	}
	if state.HasDynamicFees, err = flag(7); err != nil {
		return err
	}
	if state.InManagerMode, err = flag(8); err != nil {
		return err
	}
	if state.IsSwapEnabled, err = flag(9); err != nil {
		return err
	}
	if state.BorrowingRateInterval, err = word(10); err != nil {
		return err
	}
	if state.BorrowingRateFactor, err = word(11); err != nil {
		return err
	}
	if state.StableBorrowingRateFactor, err = word(12); err != nil {
		return err
	}
	totalWeights, err := codec.DecodeWord(raw[13])
	if err != nil {
		return fmt.Errorf("decode totalTokenWeights: %w", err)
	}
	state.TotalTokenWeights = totalWeights
	return nil
}
