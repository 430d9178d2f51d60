// Package wallet wraps the signing credential for the run.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds one ECDSA key bound to a chain ID.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// FromHex parses a hex private key (with or without 0x) and binds it to chainID.
func FromHex(pkHex string, chainID *big.Int) (*Wallet, error) {
	h := strings.TrimSpace(strings.TrimPrefix(pkHex, "0x"))
	if h == "" {
		return nil, errors.New("wallet: empty private key")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("wallet: invalid chain id")
	}
	key, err := crypto.HexToECDSA(h)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}, nil
}

func (w *Wallet) Address() common.Address { return w.address }

func (w *Wallet) ChainID() *big.Int { return new(big.Int).Set(w.chainID) }

// SignTx signs with the latest signer for the bound chain ID.
func (w *Wallet) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
}
