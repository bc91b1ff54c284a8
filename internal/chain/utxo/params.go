package utxo

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// LitecoinMainNetParams holds the address encoding of the litecoin main network.
//
// Only the fields address decoding reads are filled.
var LitecoinMainNetParams = chaincfg.Params{
	Name:             "litecoin",
	Net:              wire.BitcoinNet(0xdbb6c0fb),
	DefaultPort:      "9333",
	Bech32HRPSegwit:  "ltc",
	PubKeyHashAddrID: 0x30,
	ScriptHashAddrID: 0x32,
	PrivateKeyID:     0xb0,
	HDPrivateKeyID:   [4]byte{0x01, 0x9d, 0x9c, 0xfe},
	HDPublicKeyID:    [4]byte{0x01, 0x9d, 0xa4, 0x62},
	HDCoinType:       2,
}

func init() {
	// Bech32 decoding accepts only registered prefixes.
	if err := chaincfg.Register(&LitecoinMainNetParams); err != nil {
		panic(err)
	}
}
