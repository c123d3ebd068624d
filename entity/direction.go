package entity

type Direction int

const (
	DirectionUnrelated Direction = iota
	DirectionL2ToL1Withdrawal
	DirectionL1ToL2Deposit
)

func (d Direction) String() string {
	switch d {
	case DirectionL2ToL1Withdrawal:
		return "withdrawal"
	case DirectionL1ToL2Deposit:
		return "deposit"
	default:
		return "unrelated"
	}
}
