package asset

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// infoEnvelope is the tagged wire form of an asset identity:
// {"native_token":{"denom":...}} or {"token":{"contract_addr":...}}.
type infoEnvelope struct {
	NativeToken *NativeToken `json:"native_token,omitempty"`
	Token       *Token       `json:"token,omitempty"`
}

func MarshalInfo(info Info) ([]byte, error) {
	switch v := info.(type) {
	case NativeToken:
		return json.Marshal(infoEnvelope{NativeToken: &v})
	case Token:
		return json.Marshal(infoEnvelope{Token: &v})
	default:
		return nil, fmt.Errorf("%w: unknown asset info kind", ErrInvalidAsset)
	}
}

func UnmarshalInfo(data []byte) (Info, error) {
	var env infoEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	switch {
	case env.NativeToken != nil && env.Token == nil:
		return *env.NativeToken, nil
	case env.Token != nil && env.NativeToken == nil:
		return *env.Token, nil
	default:
		return nil, fmt.Errorf("%w: asset info must be exactly one of native_token or token", ErrInvalidAsset)
	}
}

type assetJSON struct {
	Info   json.RawMessage `json:"info"`
	Amount string          `json:"amount"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	info, err := MarshalInfo(a.Info)
	if err != nil {
		return nil, err
	}
	amount := "0"
	if a.Amount != nil {
		amount = a.Amount.String()
	}
	return json.Marshal(assetJSON{Info: info, Amount: amount})
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw assetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	info, err := UnmarshalInfo(raw.Info)
	if err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(raw.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return fmt.Errorf("%w: bad amount %q", ErrInvalidAsset, raw.Amount)
	}
	a.Info = info
	a.Amount = amount
	return nil
}
