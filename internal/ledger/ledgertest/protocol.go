package ledgertest

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math/big"
)

type (
	protocolInstantiate struct {
		Admin        string `json:"admin"`
		GenericToken string `json:"generic_token"`
	}

	protocolExecute struct {
		Receive *struct {
			Sender string `json:"sender"`
			Amount string `json:"amount"`
			Msg    string `json:"msg"`
		} `json:"receive"`
		Withdraw *struct {
			Amount string `json:"amount"`
		} `json:"withdraw"`
		Borrow *struct {
			Amount string `json:"amount"`
		} `json:"borrow"`
		SetLendingToken *struct {
			LendingToken string `json:"lending_token"`
		} `json:"set_lending_token"`
	}

	protocolHook struct {
		Deposit *struct{} `json:"Deposit"`
	}

	protocolQuery struct {
		Config   *struct{} `json:"config"`
		UserInfo *struct {
			Address string `json:"address"`
		} `json:"user_info"`
	}

	// protocol keeps per-user deposits of the generic token and mints lending
	// tokens for borrowers. It must be the lending token's minter.
	protocol struct {
		admin        string
		genericToken string
		lendingToken string
		deposits     map[string]*big.Int
		borrowed     map[string]*big.Int
	}
)

func newProtocol(raw json.RawMessage) (*protocol, error) {
	var msg protocolInstantiate
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Admin == "" || msg.GenericToken == "" {
		return nil, errors.New("admin and generic_token are required")
	}

	return &protocol{
		admin:        msg.Admin,
		genericToken: msg.GenericToken,
		deposits:     make(map[string]*big.Int),
		borrowed:     make(map[string]*big.Int),
	}, nil
}

func (p *protocol) execute(sender string, raw json.RawMessage) ([]subMsg, error) {
	var msg protocolExecute
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}

	switch {
	case msg.Receive != nil:
		if sender != p.genericToken {
			return nil, fmt.Errorf("unsupported token %s", sender)
		}
		hookRaw, err := decodeHook(msg.Receive.Msg)
		if err != nil {
			return nil, err
		}
		var hook protocolHook
		if err := strictUnmarshal(hookRaw, &hook); err != nil {
			return nil, err
		}
		if hook.Deposit == nil {
			return nil, fmt.Errorf("unknown hook %s", hookRaw)
		}
		amount, err := parseAmount(msg.Receive.Amount)
		if err != nil {
			return nil, err
		}
		p.deposits[msg.Receive.Sender] = new(big.Int).Add(amountOf(p.deposits, msg.Receive.Sender), amount)
		return nil, nil

	case msg.Withdraw != nil:
		amount, err := parseAmount(msg.Withdraw.Amount)
		if err != nil {
			return nil, err
		}
		deposited := amountOf(p.deposits, sender)
		if deposited.Cmp(amount) < 0 {
			return nil, fmt.Errorf("withdraw of %s exceeds deposit of %s", amount, deposited)
		}
		p.deposits[sender] = new(big.Int).Sub(deposited, amount)
		return []subMsg{{
			contract: p.genericToken,
			msg: map[string]any{"transfer": map[string]string{
				"recipient": sender,
				"amount":    amount.String(),
			}},
		}}, nil

	case msg.Borrow != nil:
		if p.lendingToken == "" {
			return nil, errors.New("lending token not set")
		}
		amount, err := parseAmount(msg.Borrow.Amount)
		if err != nil {
			return nil, err
		}
		p.borrowed[sender] = new(big.Int).Add(amountOf(p.borrowed, sender), amount)
		return []subMsg{{
			contract: p.lendingToken,
			msg: map[string]any{"mint": map[string]string{
				"recipient": sender,
				"amount":    amount.String(),
			}},
		}}, nil

	case msg.SetLendingToken != nil:
		if sender != p.admin {
			return nil, errors.New("unauthorized")
		}
		if msg.SetLendingToken.LendingToken == "" {
			return nil, errors.New("lending_token is required")
		}
		p.lendingToken = msg.SetLendingToken.LendingToken
		return nil, nil
	}

	return nil, fmt.Errorf("unknown variant in %s", raw)
}

func (p *protocol) query(raw json.RawMessage) (any, error) {
	var msg protocolQuery
	if err := strictUnmarshal(raw, &msg); err != nil {
		return nil, err
	}

	switch {
	case msg.Config != nil:
		return map[string]string{
			"admin":         p.admin,
			"generic_token": p.genericToken,
			"lending_token": p.lendingToken,
		}, nil
	case msg.UserInfo != nil:
		return map[string]string{
			"generic_token_deposited": amountOf(p.deposits, msg.UserInfo.Address).String(),
			"borrow_amt":              amountOf(p.borrowed, msg.UserInfo.Address).String(),
		}, nil
	}

	return nil, fmt.Errorf("unknown variant in %s", raw)
}

func (p *protocol) clone() contract {
	c := *p
	c.deposits = cloneAmounts(p.deposits)
	c.borrowed = cloneAmounts(p.borrowed)
	return &c
}

func amountOf(m map[string]*big.Int, address string) *big.Int {
	if v, ok := m[address]; ok {
		return v
	}
	return new(big.Int)
}

func cloneAmounts(m map[string]*big.Int) map[string]*big.Int {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = new(big.Int).Set(v)
	}
	return out
}
