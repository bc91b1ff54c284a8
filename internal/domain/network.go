package domain

// Network identifies a blockchain network deposits and withdrawals travel on.
type Network string

// Supported networks.
const (
	NetworkBTC   Network = "BTC"
	NetworkLTC   Network = "LTC"
	NetworkERC20 Network = "ERC20"
	NetworkTRC20 Network = "TRC20"
)

// Networks holds all the supported networks.
var Networks = []Network{NetworkBTC, NetworkLTC, NetworkERC20, NetworkTRC20}

var networkCurrency = map[Network]string{
	NetworkBTC:   "BTC",
	NetworkLTC:   "LTC",
	NetworkERC20: "USDT",
	NetworkTRC20: "USDT",
}

var requiredConfirmations = map[Network]int64{
	NetworkBTC:   3,
	NetworkLTC:   6,
	NetworkERC20: 12,
	NetworkTRC20: 20,
}

// IsSupported returns true if the network is supported.
func (n Network) IsSupported() bool {
	_, ok := networkCurrency[n]
	return ok
}

// Currency returns the currency carried by the network.
func (n Network) Currency() string {
	return networkCurrency[n]
}

// RequiredConfirmations returns the confirmation threshold of the network.
func (n Network) RequiredConfirmations() int64 {
	return requiredConfirmations[n]
}
