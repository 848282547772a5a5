package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const multicallABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "target", "type": "address"},
          {"internalType": "bytes", "name": "callData", "type": "bytes"}
        ],
        "internalType": "struct Multicall.Call[]",
        "name": "calls",
        "type": "tuple[]"
      }
    ],
    "name": "aggregate",
    "outputs": [
      {"internalType": "uint256", "name": "blockNumber", "type": "uint256"},
      {"internalType": "bytes[]", "name": "returnData", "type": "bytes[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20ABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "account", "type": "address"}],
    "name": "balanceOf",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"}
    ],
    "name": "allowance",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "totalSupply",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const vaultABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "tokenConfigurations",
    "outputs": [
      {"internalType": "bool", "name": "isWhitelisted", "type": "bool"},
      {"internalType": "uint256", "name": "tokenDecimals", "type": "uint256"},
      {"internalType": "bool", "name": "isStableToken", "type": "bool"},
      {"internalType": "bool", "name": "isShortableToken", "type": "bool"},
      {"internalType": "uint256", "name": "minProfitBasisPoints", "type": "uint256"},
      {"internalType": "uint256", "name": "tokenWeight", "type": "uint256"},
      {"internalType": "uint256", "name": "maxUsdpAmount", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "vaultInfo",
    "outputs": [
      {"internalType": "uint256", "name": "feeReserves", "type": "uint256"},
      {"internalType": "uint256", "name": "usdpAmount", "type": "uint256"},
      {"internalType": "uint256", "name": "poolAmounts", "type": "uint256"},
      {"internalType": "uint256", "name": "reservedAmounts", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "guaranteedUsd",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "globalShortSizes",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "usdp",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const gatewayABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "maxGlobalLongSizes",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "maxGlobalShortSizes",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "getAskPrice",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "token", "type": "address"}],
    "name": "getBidPrice",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const plpManagerABIJSON = `[
  {
    "inputs": [],
    "name": "getAums",
    "outputs": [{"internalType": "uint256[]", "name": "", "type": "uint256[]"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

type parsedABI struct {
	once sync.Once
	abi  abi.ABI
	err  error
}

func (p *parsedABI) load(raw string) (abi.ABI, error) {
	p.once.Do(func() {
		p.abi, p.err = abi.JSON(strings.NewReader(raw))
	})
	return p.abi, p.err
}

var (
	multicallParsed  parsedABI
	erc20Parsed      parsedABI
	vaultParsed      parsedABI
	gatewayParsed    parsedABI
	plpManagerParsed parsedABI
)

// Multicall returns the parsed multicall aggregate ABI.
func Multicall() (abi.ABI, error) { return multicallParsed.load(multicallABIJSON) }

// ERC20 returns the parsed ERC20 read ABI.
func ERC20() (abi.ABI, error) { return erc20Parsed.load(erc20ABIJSON) }

// Vault returns the parsed vault read ABI.
func Vault() (abi.ABI, error) { return vaultParsed.load(vaultABIJSON) }

// Gateway returns the parsed futures gateway read ABI.
func Gateway() (abi.ABI, error) { return gatewayParsed.load(gatewayABIJSON) }

// PlpManager returns the parsed PLP manager read ABI.
func PlpManager() (abi.ABI, error) { return plpManagerParsed.load(plpManagerABIJSON) }
