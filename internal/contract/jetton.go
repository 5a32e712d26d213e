package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
)

// Wallets resolves jetton wallet addresses through a shared cache.
type Wallets struct {
	reader chain.Reader
	cache  *AddressCache
}

func NewWallets(reader chain.Reader) *Wallets {
	return &Wallets{reader: reader, cache: NewAddressCache()}
}

// WalletAddress returns the jetton wallet of owner for the given minter.
func (w *Wallets) WalletAddress(ctx context.Context, minter, owner *address.Address) (*address.Address, error) {
	key := boc.Key(minter) + "/" + boc.Key(owner)
	return w.cache.Load(ctx, key, func(ctx context.Context) (*address.Address, error) {
		return w.reader.GetJettonWalletAddress(ctx, minter, owner)
	})
}

type JettonData struct {
	TotalSupply *big.Int
	Mintable    bool
	Admin       *address.Address
}

type JettonMinter struct {
	Address *address.Address
	reader  chain.Reader
}

func NewJettonMinter(reader chain.Reader, addr *address.Address) *JettonMinter {
	return &JettonMinter{Address: addr, reader: reader}
}

// Data reads get_jetton_data: total_supply, mintable, admin, content, wallet_code.
func (m *JettonMinter) Data(ctx context.Context) (JettonData, error) {
	res, err := m.reader.RunGetMethod(ctx, m.Address, "get_jetton_data")
	if err != nil {
		return JettonData{}, err
	}
	if err := res.Expect(3); err != nil {
		return JettonData{}, err
	}
	supply, err := res.Int(0)
	if err != nil {
		return JettonData{}, err
	}
	mintable, err := res.Int(1)
	if err != nil {
		return JettonData{}, err
	}
	admin, err := res.OptionalAddress(2)
	if err != nil {
		return JettonData{}, fmt.Errorf("jetton admin of %s: %w", m.Address.String(), err)
	}
	return JettonData{TotalSupply: supply, Mintable: mintable.Sign() != 0, Admin: admin}, nil
}

type WalletData struct {
	Balance *big.Int
	Owner   *address.Address
	Minter  *address.Address
}

type JettonWallet struct {
	Address *address.Address
	reader  chain.Reader
}

func NewJettonWallet(reader chain.Reader, addr *address.Address) *JettonWallet {
	return &JettonWallet{Address: addr, reader: reader}
}

// Data reads get_wallet_data: balance, owner, minter, wallet_code.
func (w *JettonWallet) Data(ctx context.Context) (WalletData, error) {
	res, err := w.reader.RunGetMethod(ctx, w.Address, "get_wallet_data")
	if err != nil {
		return WalletData{}, err
	}
	if err := res.Expect(3); err != nil {
		return WalletData{}, err
	}
	balance, err := res.Int(0)
	if err != nil {
		return WalletData{}, err
	}
	owner, err := res.Address(1)
	if err != nil {
		return WalletData{}, err
	}
	minter, err := res.Address(2)
	if err != nil {
		return WalletData{}, err
	}
	return WalletData{Balance: balance, Owner: owner, Minter: minter}, nil
}
