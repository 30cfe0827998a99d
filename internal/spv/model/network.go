// Package model holds the domain types shared by the SPV verification components.
package model

// Network identifies the chain a verifier instance follows.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
	Signet  Network = "signet"
)
