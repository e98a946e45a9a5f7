package model

import "math/big"

type TxType string

const (
	TxTypeNewAccount TxType = "NewAccount"
	TxTypeDeposit    TxType = "Deposit"
	TxTypeWithdraw   TxType = "Withdraw"
)

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusCompleted TxStatus = "completed"
	TxStatusFailed    TxStatus = "failed"
)

type TokenKind string

const (
	TokenKindNative TokenKind = "native"
	TokenKindERC20  TokenKind = "erc20"
)

// Token identifies the asset an operation moves. Address is only set for
// erc20 tokens.
type Token struct {
	Kind    TokenKind
	Address string
}

func NativeToken() Token {
	return Token{Kind: TokenKindNative}
}

func ERC20Token(address string) Token {
	return Token{Kind: TokenKindERC20, Address: address}
}

func (t Token) IsNative() bool {
	return t.Kind == TokenKindNative
}

func (t Token) IsZero() bool {
	return t.Kind == ""
}

type AccountAddr string
type ChainId string

// TransactionRecord is the unit of storage of the activity ledger. A
// record is identified by LocalId (minted client-side before submission),
// by TxHash (known once observed on chain), or by both once an optimistic
// record has been linked to its on-chain counterpart.
type TransactionRecord struct {
	Type        TxType
	Amount      *big.Int
	Token       Token
	To          string
	RelayerFee  *big.Int
	PocketMoney *big.Int
	TxHash      string
	Block       *big.Int
	LocalId     string
	Status      TxStatus

	// wall-clock unix millis
	SubmitTimestamp    int64
	CompletedTimestamp int64
}

// IsValid - a record must carry at least one identity
func (r *TransactionRecord) IsValid() bool {
	return r.LocalId != "" || r.TxHash != ""
}

func (r *TransactionRecord) IsLocalOnly() bool {
	return r.LocalId != "" && r.TxHash == ""
}

func (r *TransactionRecord) HasTxHash() bool {
	return r.TxHash != ""
}

// SameOperation reports whether two records denote the same logical
// operation: they share a non-empty LocalId or a non-empty TxHash.
func SameOperation(a, b *TransactionRecord) bool {
	if a.LocalId != "" && a.LocalId == b.LocalId {
		return true
	}
	if a.TxHash != "" && a.TxHash == b.TxHash {
		return true
	}
	return false
}

// MergeRecords shallow-merges the given records field by field, later
// records winning for every field they carry. Nil entries are skipped.
// Absent means zero-value: empty string, nil big.Int, zero timestamp.
func MergeRecords(records ...*TransactionRecord) TransactionRecord {
	merged := TransactionRecord{}
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Type != "" {
			merged.Type = r.Type
		}
		if r.Amount != nil {
			merged.Amount = r.Amount
		}
		if !r.Token.IsZero() {
			merged.Token = r.Token
		}
		if r.To != "" {
			merged.To = r.To
		}
		if r.RelayerFee != nil {
			merged.RelayerFee = r.RelayerFee
		}
		if r.PocketMoney != nil {
			merged.PocketMoney = r.PocketMoney
		}
		if r.TxHash != "" {
			merged.TxHash = r.TxHash
		}
		if r.Block != nil {
			merged.Block = r.Block
		}
		if r.LocalId != "" {
			merged.LocalId = r.LocalId
		}
		if r.Status != "" {
			merged.Status = r.Status
		}
		if r.SubmitTimestamp != 0 {
			merged.SubmitTimestamp = r.SubmitTimestamp
		}
		if r.CompletedTimestamp != 0 {
			merged.CompletedTimestamp = r.CompletedTimestamp
		}
	}
	return merged
}

// RecordArrayToMap keys records by TxHash when present, LocalId otherwise.
func RecordArrayToMap(arr []TransactionRecord) map[string]TransactionRecord {
	mapped := map[string]TransactionRecord{}
	for _, v := range arr {
		if v.TxHash != "" {
			mapped[v.TxHash] = v
		} else if v.LocalId != "" {
			mapped[v.LocalId] = v
		}
	}
	return mapped
}
