package monitor

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/ethclient"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
)

// Route is an immutable L1 escrow / L2 token pair loaded at startup.
type Route struct {
	ID              string
	Name            string
	AlertPrefix     string
	ChainID         string
	L1EscrowAddress common.Address
	L1TokenAddress  common.Address
	L2TokenAddress  common.Address
	L2Client        ethclient.Client
}

// NewRoutes builds routes in configuration order. clients are keyed by chain name.
func NewRoutes(cfg *config.Config, clients map[string]ethclient.Client) ([]*Route, error) {
	routes := make([]*Route, 0, len(cfg.Routes))
	for _, routeCfg := range cfg.Routes {
		client, ok := clients[routeCfg.ChainName]
		if !ok {
			return nil, fmt.Errorf("no client for chain %s of route %s: %w", routeCfg.ChainName, routeCfg.ID, config.ErrUnknownChain)
		}
		routes = append(routes, &Route{
			ID:              routeCfg.ID,
			Name:            routeCfg.Name,
			AlertPrefix:     routeCfg.AlertPrefix,
			ChainID:         routeCfg.Chain.ChainID,
			L1EscrowAddress: routeCfg.L1EscrowAddress,
			L1TokenAddress:  routeCfg.L1TokenAddress,
			L2TokenAddress:  routeCfg.L2TokenAddress,
			L2Client:        client,
		})
	}
	return routes, nil
}

func (r *Route) AlertRoute() alerts.Route {
	return alerts.Route{
		ID:          r.ID,
		Name:        r.Name,
		AlertPrefix: r.AlertPrefix,
	}
}

// Direction classifies the transfer against the route escrow.
// A transfer out of the escrow wins over a transfer into it.
func (r *Route) Direction(event *entity.TransferEvent) entity.Direction {
	if event.Token != r.L1TokenAddress {
		return entity.DirectionUnrelated
	}
	switch r.L1EscrowAddress {
	case event.Source:
		return entity.DirectionL2ToL1Withdrawal
	case event.Destination:
		return entity.DirectionL1ToL2Deposit
	default:
		return entity.DirectionUnrelated
	}
}
