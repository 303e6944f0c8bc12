package models

// WalletTopUpRequest adds funds to the user's wallet.
type WalletTopUpRequest struct {
	Amount float64 `json:"amount"`
}

// ProfileDeleteRequest confirms account deletion. The confirmation
// string must equal "DELETE" for the request to proceed.
type ProfileDeleteRequest struct {
	Confirmation string `json:"confirmation"`
}
