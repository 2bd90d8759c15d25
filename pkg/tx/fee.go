package tx

// WitnessSize is the byte cost of one witness: a compressed public key
// and a Schnorr signature.
const WitnessSize = 33 + 64

// FeeParams is the linear fee schedule: MinFeeB + MinFeeA * size.
type FeeParams struct {
	MinFeeA uint64 `json:"min_fee_a"` // per byte
	MinFeeB uint64 `json:"min_fee_b"` // constant
}

// DefaultFeeParams returns the devnet fee schedule.
func DefaultFeeParams() FeeParams {
	return FeeParams{MinFeeA: 44, MinFeeB: 155_381}
}

// Fee returns the fee for a transaction of size bytes.
func (p FeeParams) Fee(size int) uint64 {
	return p.MinFeeB + p.MinFeeA*uint64(size)
}

// RequiredFee returns the minimum fee for transaction once it carries
// the given number of witnesses. Existing witnesses are not counted twice.
func RequiredFee(transaction *Transaction, p FeeParams, witnesses int) uint64 {
	if len(transaction.Witnesses) > witnesses {
		witnesses = len(transaction.Witnesses)
	}
	return p.Fee(len(transaction.SigningBytes()) + witnesses*WitnessSize)
}
