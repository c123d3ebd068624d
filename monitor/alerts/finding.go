package alerts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityCritical Severity = "Critical"
)

type Kind string

const (
	KindInfo    Kind = "Info"
	KindExploit Kind = "Exploit"
)

// Metadata is the typed payload of a finding.
type Metadata interface {
	Fields() map[string]string
}

// TransferMetadata describes the bridge transfer behind an informational finding.
type TransferMetadata struct {
	Src    common.Address
	Dst    common.Address
	Amount *big.Int
}

func (m TransferMetadata) Fields() map[string]string {
	return map[string]string{
		"src": m.Src.String(),
		"dst": m.Dst.String(),
		"amt": decimal(m.Amount),
	}
}

// InvariantMetadata carries the two quantities of a violated invariant.
type InvariantMetadata struct {
	L1Balance *big.Int
	L2Supply  *big.Int
}

func (m InvariantMetadata) Fields() map[string]string {
	return map[string]string{
		"l1Balance": decimal(m.L1Balance),
		"l2Supply":  decimal(m.L2Supply),
	}
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Finding is never modified after construction.
type Finding struct {
	AlertID     string
	RouteID     string
	Name        string
	Description string
	Severity    Severity
	Kind        Kind
	Metadata    Metadata
}
