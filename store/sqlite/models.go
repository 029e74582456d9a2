package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/coffer/account"
	"github.com/xraph/coffer/types"
)

type balanceModel struct {
	grove.BaseModel `grove:"table:coffer_balances"`

	Account   string    `grove:"account,pk"`
	Name      string    `grove:"name"`
	Amount    int64     `grove:"amount"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toBalanceModel(b *account.Balance) *balanceModel {
	return &balanceModel{
		Account:   b.Account,
		Name:      b.Name,
		Amount:    b.Amount.Int64(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func fromBalanceModel(m *balanceModel) *account.Balance {
	return &account.Balance{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Account: m.Account,
		Name:    m.Name,
		Amount:  types.Coins(m.Amount),
	}
}
