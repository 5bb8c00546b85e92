// Package wallet implements the money-moving tools: wallet_transfer,
// wallet_balance and transfer_status.
package wallet
