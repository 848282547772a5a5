package codec

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUnknownMethod reports a method name missing from an interface description.
var ErrUnknownMethod = errors.New("codec: unknown method")

// ErrBadTuple reports return bytes that do not match the method's output shape.
var ErrBadTuple = errors.New("codec: return tuple mismatch")

// Selector returns the 4-byte function selector for a canonical signature
// such as "balanceOf(address)".
func Selector(signature string) [4]byte {
	var selector [4]byte
	copy(selector[:], crypto.Keccak256([]byte(signature))[:4])
	return selector
}

// VariableData builds the calldata for a zero-argument accessor, deriving the
// selector from the variable name alone ("feeBasisPoints" -> "feeBasisPoints()").
func VariableData(name string) []byte {
	selector := Selector(name + "()")
	return selector[:]
}

// EncodeCall packs a method call: 4-byte selector followed by ABI-encoded params.
func EncodeCall(contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	if _, ok := contractABI.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// DecodeReturn unpacks one call's return bytes into an ordered value tuple.
// A failure is scoped to this call only; the caller decides how to surface it.
func DecodeReturn(contractABI abi.ABI, method string, data []byte) ([]interface{}, error) {
	m, ok := contractABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	values, err := contractABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != len(m.Outputs) {
		return nil, fmt.Errorf("%w: %s returned %d values, want %d", ErrBadTuple, method, len(values), len(m.Outputs))
	}
	return values, nil
}

// DecodeWord interprets a raw 32-byte return word as an unsigned integer.
func DecodeWord(data []byte) (*big.Int, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrBadTuple, len(data))
	}
	return new(big.Int).SetBytes(data), nil
}

// DecodeWordBool interprets a raw 32-byte return word as a boolean flag.
func DecodeWordBool(data []byte) (bool, error) {
	word, err := DecodeWord(data)
	if err != nil {
		return false, err
	}
	return word.Sign() != 0, nil
}

// DecodeWordAddress interprets a raw 32-byte return word as an address.
func DecodeWordAddress(data []byte) (common.Address, error) {
	if len(data) != 32 {
		return common.Address{}, fmt.Errorf("%w: got %d bytes, want 32", ErrBadTuple, len(data))
	}
	return common.BytesToAddress(data[12:]), nil
}

// AsBigInt coerces a decoded ABI value into a big integer.
func AsBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

// AsUint64 coerces a decoded ABI value into a uint64.
func AsUint64(value interface{}) (uint64, error) {
	n, err := AsBigInt(value)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value does not fit in uint64: %s", n)
	}
	return n.Uint64(), nil
}

// AsBool coerces a decoded ABI value into a bool.
func AsBool(value interface{}) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unsupported bool type %T", value)
	}
	return b, nil
}

// AsAddress coerces a decoded ABI value into an address.
func AsAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

// AsBigIntSlice coerces a decoded ABI value into a slice of big integers.
func AsBigIntSlice(value interface{}) ([]*big.Int, error) {
	switch v := value.(type) {
	case []*big.Int:
		out := make([]*big.Int, len(v))
		for i, n := range v {
			out[i] = new(big.Int).Set(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported int slice type %T", value)
	}
}
