package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestAllInterfacesParse(t *testing.T) {
	cases := []struct {
		name    string
		load    func() (abi.ABI, error)
		methods []string
	}{
		{"multicall", Multicall, []string{"aggregate"}},
		{"erc20", ERC20, []string{"balanceOf", "allowance", "totalSupply"}},
		{"vault", Vault, []string{"tokenConfigurations", "vaultInfo", "guaranteedUsd", "globalShortSizes", "usdp"}},
		{"gateway", Gateway, []string{"maxGlobalLongSizes", "maxGlobalShortSizes", "getAskPrice", "getBidPrice"}},
		{"plp_manager", PlpManager, []string{"getAums"}},
	}

	for _, tc := range cases {
		parsed, err := tc.load()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		for _, method := range tc.methods {
			if _, ok := parsed.Methods[method]; !ok {
				t.Fatalf("%s: missing method %s", tc.name, method)
			}
		}
	}
}

func TestTokenConfigurationsShape(t *testing.T) {
	parsed, err := Vault()
	if err != nil {
		t.Fatalf("Vault: %v", err)
	}
	outputs := parsed.Methods["tokenConfigurations"].Outputs
	if len(outputs) != 7 {
		t.Fatalf("tokenConfigurations outputs = %d, want 7", len(outputs))
	}
}
