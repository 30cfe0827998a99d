package model

import "time"

// ClaimedOutput is an output the reporting wallet service says the transaction pays.
type ClaimedOutput struct {
	Address string
	Amount  int64
}

// PendingVerification is a queue entry awaiting chain confirmation.
type PendingVerification struct {
	TxID        string
	BlockHash   string
	BlockHeight uint32
	Outputs     []ClaimedOutput
	WalletID    string
	Operation   string
	ReceivedAt  time.Time
}

// TxStatus is the outcome of checking a single candidate leaf.
type TxStatus string

const (
	TxVerified   TxStatus = "verified"
	TxUnverified TxStatus = "unverified"
)

// MerkleRootStatus is the outcome of comparing the rebuilt root with the stored header.
type MerkleRootStatus string

const (
	MerkleRootVerified       MerkleRootStatus = "verified"
	MerkleRootMismatch       MerkleRootStatus = "merkleRoot mismatch"
	MerkleRootHeaderNotFound MerkleRootStatus = "header not found"
	MerkleRootUnverified     MerkleRootStatus = "unverified"
)

// LeafStatus is the per-transaction part of a VerificationResult.
type LeafStatus struct {
	Index  int
	TxID   string
	Status TxStatus
}

// VerificationResult is produced once per verification attempt.
type VerificationResult struct {
	TxID         string
	BlockHash    string
	BlockHeight  uint32
	WalletID     string
	Transactions []LeafStatus
	MerkleRoot   MerkleRootStatus
	ComputedRoot string
	VerifiedAt   time.Time
}

// Verified reports whether the root matched and at least one candidate leaf passed.
func (r VerificationResult) Verified() bool {
	if r.MerkleRoot != MerkleRootVerified {
		return false
	}
	for _, tx := range r.Transactions {
		if tx.Status == TxVerified {
			return true
		}
	}
	return false
}
