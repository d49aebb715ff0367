package contracts

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// CW20 token messages.
type (
	TokenInstantiate struct {
		Name            string        `json:"name"`
		Symbol          string        `json:"symbol"`
		Decimals        uint8         `json:"decimals"`
		InitialBalances []Balance     `json:"initial_balances"`
		Mint            *MinterConfig `json:"mint,omitempty"`
	}

	Balance struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}

	MinterConfig struct {
		Minter string `json:"minter"`
	}

	SendMsg struct {
		Send struct {
			Contract string `json:"contract"`
			Amount   string `json:"amount"`
			Msg      string `json:"msg"`
		} `json:"send"`
	}

	BalanceQuery struct {
		Balance struct {
			Address string `json:"address"`
		} `json:"balance"`
	}

	BalanceResponse struct {
		Balance string `json:"balance"`
	}
)

// Lending protocol messages.
type (
	ProtocolInstantiate struct {
		Admin        string `json:"admin"`
		GenericToken string `json:"generic_token"`
	}

	SetLendingTokenMsg struct {
		SetLendingToken struct {
			LendingToken string `json:"lending_token"`
		} `json:"set_lending_token"`
	}

	WithdrawMsg struct {
		Withdraw struct {
			Amount string `json:"amount"`
		} `json:"withdraw"`
	}

	BorrowMsg struct {
		Borrow struct {
			Amount string `json:"amount"`
		} `json:"borrow"`
	}

	// DepositHook is carried base64-encoded inside a CW20 send to the protocol.
	DepositHook struct {
		Deposit struct{} `json:"Deposit"`
	}

	ConfigQuery struct {
		Config struct{} `json:"config"`
	}

	ProtocolConfig struct {
		Admin        string `json:"admin"`
		GenericToken string `json:"generic_token"`
		LendingToken string `json:"lending_token"`
	}
)

// NewSend builds a CW20 send of amount to contract with hook as the receive message.
func NewSend(contract, amount string, hook any) (SendMsg, error) {
	raw, err := json.Marshal(hook)
	if err != nil {
		return SendMsg{}, fmt.Errorf("failed to encode send hook: %w", err)
	}

	var msg SendMsg
	msg.Send.Contract = contract
	msg.Send.Amount = amount
	msg.Send.Msg = base64.StdEncoding.EncodeToString(raw)
	return msg, nil
}

func NewBalanceQuery(address string) BalanceQuery {
	var q BalanceQuery
	q.Balance.Address = address
	return q
}

func NewSetLendingToken(address string) SetLendingTokenMsg {
	var msg SetLendingTokenMsg
	msg.SetLendingToken.LendingToken = address
	return msg
}

func NewWithdraw(amount string) WithdrawMsg {
	var msg WithdrawMsg
	msg.Withdraw.Amount = amount
	return msg
}

func NewBorrow(amount string) BorrowMsg {
	var msg BorrowMsg
	msg.Borrow.Amount = amount
	return msg
}
