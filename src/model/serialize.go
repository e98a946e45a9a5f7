package model

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// wireRecord is the stored shape of a TransactionRecord. Every
// arbitrary-precision integer is a base-10 string so values past 2^63
// survive the round trip.
type wireRecord struct {
	Type               string `json:"type"`
	Amount             string `json:"amount,omitempty"`
	TokenKind          string `json:"tokenKind,omitempty"`
	TokenAddress       string `json:"tokenAddress,omitempty"`
	To                 string `json:"to,omitempty"`
	RelayerFee         string `json:"relayerFee,omitempty"`
	PocketMoney        string `json:"pocketMoney,omitempty"`
	TxHash             string `json:"txHash,omitempty"`
	Block              string `json:"block,omitempty"`
	LocalId            string `json:"localId,omitempty"`
	Status             string `json:"status,omitempty"`
	SubmitTimestamp    int64  `json:"submitTimestamp,omitempty"`
	CompletedTimestamp int64  `json:"completedTimestamp,omitempty"`
}

func bigToString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func stringToBig(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("not a base-10 integer: %q", s)
	}
	return v, nil
}

func toWire(r TransactionRecord) wireRecord {
	return wireRecord{
		Type:               string(r.Type),
		Amount:             bigToString(r.Amount),
		TokenKind:          string(r.Token.Kind),
		TokenAddress:       r.Token.Address,
		To:                 r.To,
		RelayerFee:         bigToString(r.RelayerFee),
		PocketMoney:        bigToString(r.PocketMoney),
		TxHash:             r.TxHash,
		Block:              bigToString(r.Block),
		LocalId:            r.LocalId,
		Status:             string(r.Status),
		SubmitTimestamp:    r.SubmitTimestamp,
		CompletedTimestamp: r.CompletedTimestamp,
	}
}

func fromWire(w wireRecord) (TransactionRecord, error) {
	amount, err := stringToBig(w.Amount)
	if err != nil {
		return TransactionRecord{}, errors.Wrap(err, "bad amount")
	}
	relayerFee, err := stringToBig(w.RelayerFee)
	if err != nil {
		return TransactionRecord{}, errors.Wrap(err, "bad relayerFee")
	}
	pocketMoney, err := stringToBig(w.PocketMoney)
	if err != nil {
		return TransactionRecord{}, errors.Wrap(err, "bad pocketMoney")
	}
	block, err := stringToBig(w.Block)
	if err != nil {
		return TransactionRecord{}, errors.Wrap(err, "bad block")
	}
	return TransactionRecord{
		Type:               TxType(w.Type),
		Amount:             amount,
		Token:              Token{Kind: TokenKind(w.TokenKind), Address: w.TokenAddress},
		To:                 w.To,
		RelayerFee:         relayerFee,
		PocketMoney:        pocketMoney,
		TxHash:             w.TxHash,
		Block:              block,
		LocalId:            w.LocalId,
		Status:             TxStatus(w.Status),
		SubmitTimestamp:    w.SubmitTimestamp,
		CompletedTimestamp: w.CompletedTimestamp,
	}, nil
}

func MarshalRecordList(records []TransactionRecord) ([]byte, error) {
	wire := make([]wireRecord, 0, len(records))
	for _, r := range records {
		wire = append(wire, toWire(r))
	}
	encoded, err := json.Marshal(wire)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling record list")
	}
	return encoded, nil
}

// UnmarshalRecordList decodes a stored record list. Rows that fail to
// parse or lack both identities are dropped, never surfaced as an error;
// the ledger is a reconstructible cache and a corrupt row must not take
// the whole history down with it.
func UnmarshalRecordList(data []byte) []TransactionRecord {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil
	}
	records := make([]TransactionRecord, 0, len(wire))
	for _, w := range wire {
		r, err := fromWire(w)
		if err != nil {
			continue
		}
		if !r.IsValid() {
			continue
		}
		records = append(records, r)
	}
	return records
}
