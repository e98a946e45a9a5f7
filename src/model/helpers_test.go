package model

import (
	"math/big"

	"github.com/google/go-cmp/cmp"
)

// cmp option that compares *big.Int by value, nil-safe
var bigIntCmp = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})
