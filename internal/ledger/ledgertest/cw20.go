package ledgertest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math/big"
)

type (
	tokenInstantiate struct {
		Name            string `json:"name"`
		Symbol          string `json:"symbol"`
		Decimals        uint8  `json:"decimals"`
		InitialBalances []struct {
			Address string `json:"address"`
			Amount  string `json:"amount"`
		} `json:"initial_balances"`
		Mint *struct {
			Minter string `json:"minter"`
		} `json:"mint"`
	}

	tokenExecute struct {
		Transfer *struct {
			Recipient string `json:"recipient"`
			Amount    string `json:"amount"`
		} `json:"transfer"`
		Send *struct {
			Contract string `json:"contract"`
			Amount   string `json:"amount"`
			Msg      string `json:"msg"`
		} `json:"send"`
		Mint *struct {
			Recipient string `json:"recipient"`
			Amount    string `json:"amount"`
		} `json:"mint"`
		Burn *struct {
			Amount string `json:"amount"`
		} `json:"burn"`
	}

	tokenQuery struct {
		Balance *struct {
			Address string `json:"address"`
		} `json:"balance"`
		TokenInfo *struct{} `json:"token_info"`
		Minter    *struct{} `json:"minter"`
	}

	// token follows the cw20-base contract closely enough for the workflows.
	token struct {
		name     string
		symbol   string
		decimals uint8
		minter   string
		supply   *big.Int
		balances map[string]*big.Int
	}
)

func newToken(raw json.RawMessage) (*token, error) {
	var msg tokenInstantiate
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Name == "" || msg.Symbol == "" {
		return nil, errors.New("name and symbol are required")
	}

	t := &token{
		name:     msg.Name,
		symbol:   msg.Symbol,
		decimals: msg.Decimals,
		supply:   new(big.Int),
		balances: make(map[string]*big.Int),
	}
	if msg.Mint != nil {
		t.minter = msg.Mint.Minter
	}

	for _, b := range msg.InitialBalances {
		amount, err := parseAmount(b.Amount)
		if err != nil {
			return nil, err
		}
		t.credit(b.Address, amount)
		t.supply.Add(t.supply, amount)
	}

	return t, nil
}

func (t *token) execute(sender string, raw json.RawMessage) ([]subMsg, error) {
	var msg tokenExecute
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}

	switch {
	case msg.Transfer != nil:
		amount, err := parseAmount(msg.Transfer.Amount)
		if err != nil {
			return nil, err
		}
		if err := t.debit(sender, amount); err != nil {
			return nil, err
		}
		t.credit(msg.Transfer.Recipient, amount)
		return nil, nil

	case msg.Send != nil:
		amount, err := parseAmount(msg.Send.Amount)
		if err != nil {
			return nil, err
		}
		if err := t.debit(sender, amount); err != nil {
			return nil, err
		}
		t.credit(msg.Send.Contract, amount)
		return []subMsg{{
			contract: msg.Send.Contract,
			msg: map[string]any{"receive": map[string]string{
				"sender": sender,
				"amount": amount.String(),
				"msg":    msg.Send.Msg,
			}},
		}}, nil

	case msg.Mint != nil:
		if t.minter == "" || sender != t.minter {
			return nil, errors.New("unauthorized")
		}
		amount, err := parseAmount(msg.Mint.Amount)
		if err != nil {
			return nil, err
		}
		t.credit(msg.Mint.Recipient, amount)
		t.supply.Add(t.supply, amount)
		return nil, nil

	case msg.Burn != nil:
		amount, err := parseAmount(msg.Burn.Amount)
		if err != nil {
			return nil, err
		}
		if err := t.debit(sender, amount); err != nil {
			return nil, err
		}
		t.supply.Sub(t.supply, amount)
		return nil, nil
	}

	return nil, fmt.Errorf("unknown variant in %s", raw)
}

func (t *token) query(raw json.RawMessage) (any, error) {
	var msg tokenQuery
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}

	switch {
	case msg.Balance != nil:
		return map[string]string{"balance": t.balance(msg.Balance.Address).String()}, nil
	case msg.TokenInfo != nil:
		return map[string]any{
			"name":         t.name,
			"symbol":       t.symbol,
			"decimals":     t.decimals,
			"total_supply": t.supply.String(),
		}, nil
	case msg.Minter != nil:
		if t.minter == "" {
			return nil, nil
		}
		return map[string]any{"minter": t.minter}, nil
	}

	return nil, fmt.Errorf("unknown variant in %s", raw)
}

func (t *token) clone() contract {
	c := *t
	c.supply = new(big.Int).Set(t.supply)
	c.balances = maps.Clone(t.balances)
	for k, v := range c.balances {
		c.balances[k] = new(big.Int).Set(v)
	}
	return &c
}

func (t *token) balance(address string) *big.Int {
	if b, ok := t.balances[address]; ok {
		return b
	}
	return new(big.Int)
}

func (t *token) credit(address string, amount *big.Int) {
	t.balances[address] = new(big.Int).Add(t.balance(address), amount)
}

func (t *token) debit(address string, amount *big.Int) error {
	current := t.balance(address)
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds: balance %s, required %s", current, amount)
	}
	t.balances[address] = new(big.Int).Sub(current, amount)
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func strictUnmarshal(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return nil
}

func decodeHook(encoded string) (json.RawMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid hook message: %w", err)
	}
	return raw, nil
}
