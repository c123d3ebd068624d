package alerts

import (
	"fmt"
	"math/big"

	"github.com/poanetwork/escrow-monitor/entity"
)

const (
	WithdrawalAlertSuffix = "WTHDRW-1"
	DepositAlertSuffix    = "DPST-1"
	InvariantAlertSuffix  = "INVRNT-1"
)

// Route holds the labels used to render findings for a bridge route.
type Route struct {
	ID          string
	Name        string
	AlertPrefix string
}

type Emitter struct {
	tokenName string
}

func NewEmitter(tokenName string) *Emitter {
	return &Emitter{tokenName: tokenName}
}

// Emit maps a classified transfer and its optional invariant check to findings.
// The transfer finding always comes first.
func (e *Emitter) Emit(route Route, direction entity.Direction, event *entity.TransferEvent, result *entity.InvariantResult) []*Finding {
	transfer := e.transferFinding(route, direction, event)
	if transfer == nil {
		return nil
	}
	findings := []*Finding{transfer}
	if result != nil && result.Violated {
		findings = append(findings, e.invariantFinding(route, result))
	}
	return findings
}

func (e *Emitter) transferFinding(route Route, direction entity.Direction, event *entity.TransferEvent) *Finding {
	finding := &Finding{
		RouteID:  route.ID,
		Severity: SeverityInfo,
		Kind:     KindInfo,
		Metadata: TransferMetadata{
			Src:    event.Source,
			Dst:    event.Destination,
			Amount: new(big.Int).Set(amountOrZero(event.Amount)),
		},
	}
	switch direction {
	case entity.DirectionL2ToL1Withdrawal:
		finding.AlertID = route.AlertPrefix + "-" + WithdrawalAlertSuffix
		finding.Name = fmt.Sprintf("%s withdrawn from %s", e.tokenName, route.Name)
		finding.Description = fmt.Sprintf("%s bridge used to transfer %s from %s to L1", e.tokenName, e.tokenName, route.Name)
	case entity.DirectionL1ToL2Deposit:
		finding.AlertID = route.AlertPrefix + "-" + DepositAlertSuffix
		finding.Name = fmt.Sprintf("%s deposited to %s", e.tokenName, route.Name)
		finding.Description = fmt.Sprintf("%s bridge used to transfer %s from L1 to %s", e.tokenName, e.tokenName, route.Name)
	default:
		return nil
	}
	return finding
}

func (e *Emitter) invariantFinding(route Route, result *entity.InvariantResult) *Finding {
	return &Finding{
		AlertID:     route.AlertPrefix + "-" + InvariantAlertSuffix,
		RouteID:     route.ID,
		Name:        fmt.Sprintf("%s %s bridge invariant violated", route.Name, e.tokenName),
		Description: fmt.Sprintf("%s L2 %s supply exceeds L1 Escrow balance", route.Name, e.tokenName),
		Severity:    SeverityCritical,
		Kind:        KindExploit,
		Metadata: InvariantMetadata{
			L1Balance: new(big.Int).Set(amountOrZero(result.L1Balance)),
			L2Supply:  new(big.Int).Set(amountOrZero(result.L2Supply)),
		},
	}
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
