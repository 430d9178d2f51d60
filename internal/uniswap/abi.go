package uniswap

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Mainnet defaults (overridable via config).
var (
	DefaultRouter = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	DefaultWETH   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

// Minimal router ABI fragment: the two plain buy entrypoints we watch for,
// plus the fee-on-transfer sell entrypoint we emit.
const routerABIJSON = `[
	{"inputs":[
		{"internalType":"uint256","name":"amountOutMin","type":"uint256"},
		{"internalType":"address[]","name":"path","type":"address[]"},
		{"internalType":"address","name":"to","type":"address"},
		{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapExactETHForTokens",
	 "outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],
	 "stateMutability":"payable","type":"function"},
	{"inputs":[
		{"internalType":"uint256","name":"amountIn","type":"uint256"},
		{"internalType":"uint256","name":"amountOutMin","type":"uint256"},
		{"internalType":"address[]","name":"path","type":"address[]"},
		{"internalType":"address","name":"to","type":"address"},
		{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapExactTokensForTokens",
	 "outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],
	 "stateMutability":"nonpayable","type":"function"},
	{"inputs":[
		{"internalType":"uint256","name":"amountIn","type":"uint256"},
		{"internalType":"uint256","name":"amountOutMin","type":"uint256"},
		{"internalType":"address[]","name":"path","type":"address[]"},
		{"internalType":"address","name":"to","type":"address"},
		{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapExactTokensForETHSupportingFeeOnTransferTokens","outputs":[],
	 "stateMutability":"nonpayable","type":"function"}
]`

const (
	methodBuyWithETH    = "swapExactETHForTokens"                              // 0x7ff36ab5
	methodBuyWithTokens = "swapExactTokensForTokens"                           // 0x38ed1739
	methodSell          = "swapExactTokensForETHSupportingFeeOnTransferTokens" // 0x791ac947
)

var routerABI abi.ABI

func init() {
	ab, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic("uniswap: bad router ABI: " + err.Error())
	}
	routerABI = ab
}

// RouterABI returns the parsed router ABI fragment.
func RouterABI() abi.ABI { return routerABI }

// SellMethod returns the method used for the countertrade.
func SellMethod() abi.Method { return routerABI.Methods[methodSell] }

// PackSell ABI-encodes the countertrade call:
// swapExactTokensForETHSupportingFeeOnTransferTokens.
func PackSell(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return routerABI.Pack(methodSell, amountIn, amountOutMin, path, to, deadline)
}
