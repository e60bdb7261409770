package types

// TransactionReceipt records the outcome of executing one transaction: its
// commitment level, the proofs produced for every object it actually
// changed, and the full effect list for audit.
type TransactionReceipt struct {
	TransactionHash Hash                     `json:"transaction_hash"`
	Slot            uint64                   `json:"slot"`
	Success         bool                     `json:"success"`
	Timestamp       int64                    `json:"timestamp"`
	CommitmentLevel CommitmentLevel          `json:"commitment_level"`
	ErrorMessage    string                   `json:"error_message,omitempty"`
	ObjectProofs    map[ObjectId]*ObjectProof `json:"object_proofs,omitempty"`
	Effects         []ObjectEffect           `json:"effects,omitempty"`
}

// NewFailedReceipt builds a receipt for a transaction that never produced
// any effects — conflict rejection, object-load failure, or an instruction
// error with no prior successful effects in the same transaction.
func NewFailedReceipt(txHash Hash, slot uint64, timestamp int64, reason string) *TransactionReceipt {
	return &TransactionReceipt{
		TransactionHash: txHash,
		Slot:            slot,
		Success:         false,
		Timestamp:       timestamp,
		CommitmentLevel: Failed,
		ErrorMessage:    reason,
	}
}
