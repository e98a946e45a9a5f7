package orchestrator

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// approve(address,uint256) selector, first four bytes of the keccak of
// the canonical signature
var approveSelector = keccak256([]byte("approve(address,uint256)"))[:4]

func leftPad32(b []byte) []byte {
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// approveRequest builds the allowance-grant transaction for an erc20
// token.
func approveRequest(tokenAddress string, spender string, amount *big.Int) (TxRequest, error) {
	spenderBytes, err := hex.DecodeString(strings.TrimPrefix(spender, "0x"))
	if err != nil || len(spenderBytes) != 20 {
		return TxRequest{}, errors.Errorf("bad spender address %q", spender)
	}
	data := make([]byte, 0, 4+32+32)
	data = append(data, approveSelector...)
	data = append(data, leftPad32(spenderBytes)...)
	data = append(data, leftPad32(amount.Bytes())...)
	return TxRequest{
		To:    tokenAddress,
		Data:  data,
		Value: big.NewInt(0),
	}, nil
}
