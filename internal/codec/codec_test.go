package codec

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20TestABI = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

func TestSelectorKnownSignatures(t *testing.T) {
	cases := []struct {
		signature string
		want      string
	}{
		{"balanceOf(address)", "70a08231"},
		{"allowance(address,address)", "dd62ed3e"},
		{"tokenConfigurations(address)", "9b2ac49a"},
	}
	for _, tc := range cases {
		got := Selector(tc.signature)
		if hex.EncodeToString(got[:]) != tc.want {
			t.Fatalf("Selector(%q) = %x, want %s", tc.signature, got, tc.want)
		}
	}
}

func TestVariableData(t *testing.T) {
	data := VariableData("feeBasisPoints")
	want := Selector("feeBasisPoints()")
	if len(data) != 4 {
		t.Fatalf("VariableData length = %d, want 4", len(data))
	}
	if hex.EncodeToString(data) != hex.EncodeToString(want[:]) {
		t.Fatalf("VariableData = %x, want %x", data, want)
	}
}

func TestEncodeCallBalanceOf(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20TestABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	account := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	data, err := EncodeCall(parsed, "balanceOf", account)
	if err != nil {
		t.Fatalf("EncodeCall: %v", err)
	}
	want := "70a08231000000000000000000000000000000000000000000000000000000000000dead"
	if hex.EncodeToString(data) != want {
		t.Fatalf("EncodeCall = %x, want %s", data, want)
	}
}

func TestEncodeCallUnknownMethod(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20TestABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	if _, err := EncodeCall(parsed, "transfer"); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("EncodeCall unknown method error = %v, want ErrUnknownMethod", err)
	}
}

func TestDecodeReturnRoundTrip(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20TestABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	balance := big.NewInt(123456789)
	encoded, err := parsed.Methods["balanceOf"].Outputs.Pack(balance)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	values, err := DecodeReturn(parsed, "balanceOf", encoded)
	if err != nil {
		t.Fatalf("DecodeReturn: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("DecodeReturn returned %d values, want 1", len(values))
	}
	got, err := AsBigInt(values[0])
	if err != nil {
		t.Fatalf("AsBigInt: %v", err)
	}
	if got.Cmp(balance) != 0 {
		t.Fatalf("decoded balance = %s, want %s", got, balance)
	}
}

func TestDecodeReturnUnknownMethod(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20TestABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	if _, err := DecodeReturn(parsed, "nope", nil); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("DecodeReturn unknown method error = %v, want ErrUnknownMethod", err)
	}
}

func TestDecodeWord(t *testing.T) {
	word := common.LeftPadBytes(big.NewInt(42).Bytes(), 32)
	got, err := DecodeWord(word)
	if err != nil {
		t.Fatalf("DecodeWord: %v", err)
	}
	if got.Int64() != 42 {
		t.Fatalf("DecodeWord = %s, want 42", got)
	}

	if _, err := DecodeWord([]byte{1, 2, 3}); !errors.Is(err, ErrBadTuple) {
		t.Fatalf("DecodeWord short input error = %v, want ErrBadTuple", err)
	}
}

func TestDecodeWordBool(t *testing.T) {
	truthy := common.LeftPadBytes([]byte{1}, 32)
	got, err := DecodeWordBool(truthy)
	if err != nil {
		t.Fatalf("DecodeWordBool: %v", err)
	}
	if !got {
		t.Fatalf("DecodeWordBool(1) = false, want true")
	}

	falsy := make([]byte, 32)
	got, err = DecodeWordBool(falsy)
	if err != nil {
		t.Fatalf("DecodeWordBool: %v", err)
	}
	if got {
		t.Fatalf("DecodeWordBool(0) = true, want false")
	}
}

func TestDecodeWordAddress(t *testing.T) {
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	word := common.LeftPadBytes(addr.Bytes(), 32)
	got, err := DecodeWordAddress(word)
	if err != nil {
		t.Fatalf("DecodeWordAddress: %v", err)
	}
	if got != addr {
		t.Fatalf("DecodeWordAddress = %s, want %s", got.Hex(), addr.Hex())
	}
}

func TestAsUint64OutOfRange(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 64)
	if _, err := AsUint64(huge); err == nil {
		t.Fatal("AsUint64(2^64) expected error")
	}
}

func TestAsBigIntSlice(t *testing.T) {
	in := []*big.Int{big.NewInt(1), big.NewInt(2)}
	out, err := AsBigIntSlice(in)
	if err != nil {
		t.Fatalf("AsBigIntSlice: %v", err)
	}
	if len(out) != 2 || out[0].Int64() != 1 || out[1].Int64() != 2 {
		t.Fatalf("AsBigIntSlice = %v", out)
	}
	// Must be copies, not aliases.
	out[0].SetInt64(99)
	if in[0].Int64() != 1 {
		t.Fatal("AsBigIntSlice aliased the input")
	}
}
