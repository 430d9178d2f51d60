package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const (
	testKeyHex  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	testKeyAddr = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestFromHex_DerivesAddress(t *testing.T) {
	w, err := FromHex(testKeyHex, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testKeyAddr), w.Address())
	require.Equal(t, "1", w.ChainID().String())
}

func TestFromHex_AcceptsPrefix(t *testing.T) {
	plain, err := FromHex(testKeyHex, big.NewInt(1))
	require.NoError(t, err)
	prefixed, err := FromHex("0x"+testKeyHex, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, plain.Address(), prefixed.Address())
}

func TestFromHex_Rejects(t *testing.T) {
	_, err := FromHex("", big.NewInt(1))
	require.Error(t, err)

	_, err = FromHex("zz", big.NewInt(1))
	require.Error(t, err)

	_, err = FromHex(testKeyHex, nil)
	require.Error(t, err)

	_, err = FromHex(testKeyHex, big.NewInt(0))
	require.Error(t, err)
}

func TestChainID_ReturnsCopy(t *testing.T) {
	w, err := FromHex(testKeyHex, big.NewInt(5))
	require.NoError(t, err)
	w.ChainID().SetInt64(999)
	require.Equal(t, "5", w.ChainID().String())
}

func TestSignTx_SenderRecoverable(t *testing.T) {
	chainID := big.NewInt(1)
	w, err := FromHex(testKeyHex, chainID)
	require.NoError(t, err)

	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(30_000_000_000),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(1),
	})

	signed, err := w.SignTx(tx)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	require.Equal(t, w.Address(), from)
}
