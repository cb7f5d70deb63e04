package movements

// ComputeNewStock derives the post-movement stock level from the snapshot.
// Entries add, exits and transfers subtract on the source side, adjustments
// set the absolute level. No clamping happens here; the validator rejects
// quantities that would drive stock negative.
func ComputeNewStock(movType MovementType, previous, quantity int64) int64 {
	switch movType {
	case TypeEntry:
		return previous + quantity
	case TypeExit, TypeTransfer:
		return previous - quantity
	case TypeAdjustment:
		return quantity
	default:
		return previous
	}
}
