package monitor

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
)

// Handler runs classification, evaluation and emission for incoming transfers.
type Handler struct {
	logger    logging.Logger
	routes    []*Route
	evaluator *Evaluator
	emitter   *alerts.Emitter
	publisher alerts.Publisher
}

func NewHandler(logger logging.Logger, routes []*Route, evaluator *Evaluator, emitter *alerts.Emitter, publisher alerts.Publisher) *Handler {
	return &Handler{
		logger:    logger,
		routes:    routes,
		evaluator: evaluator,
		emitter:   emitter,
		publisher: publisher,
	}
}

func (h *Handler) Routes() []*Route {
	return h.routes
}

// HandleTransfers processes events in order. Findings of successful routes are always
// returned, failures are aggregated into the returned error.
func (h *Handler) HandleTransfers(ctx context.Context, events []*entity.TransferEvent) ([]*alerts.Finding, error) {
	var findings []*alerts.Finding
	var result *multierror.Error
	for _, event := range events {
		res, err := h.HandleTransfer(ctx, event)
		findings = append(findings, res...)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return findings, result.ErrorOrNil()
}

// HandleTransfer evaluates every route matched by the event in route order.
// A failed route emits nothing and does not affect the remaining routes.
func (h *Handler) HandleTransfer(ctx context.Context, event *entity.TransferEvent) ([]*alerts.Finding, error) {
	var findings []*alerts.Finding
	var result *multierror.Error
	for _, match := range Classify(event, h.routes) {
		res, err := h.handleMatch(ctx, match, event)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		findings = append(findings, res...)
	}
	if len(findings) > 0 && h.publisher != nil {
		if err := h.publisher.Publish(ctx, event, findings); err != nil {
			result = multierror.Append(result, fmt.Errorf("can't publish findings: %w", err))
		}
	}
	return findings, result.ErrorOrNil()
}

func (h *Handler) handleMatch(ctx context.Context, match *Match, event *entity.TransferEvent) ([]*alerts.Finding, error) {
	route := match.Route
	logger := h.logger.WithFields(logrus.Fields{
		"route_id":     route.ID,
		"direction":    match.Direction.String(),
		"block_number": event.BlockNumber,
		"tx_hash":      event.TransactionHash,
		"log_index":    event.LogIndex,
	})

	res, err := h.evaluator.Evaluate(ctx, route, match.Direction, event)
	if err != nil {
		Evaluations.WithLabelValues(route.ID, match.Direction.String(), "error").Inc()
		logger.WithError(err).Error("failed to evaluate bridge invariant")
		return nil, fmt.Errorf("route %s: %w", route.ID, err)
	}

	L1Balance.WithLabelValues(route.ID).Set(toFloat(res.L1Balance))
	L2Supply.WithLabelValues(route.ID).Set(toFloat(res.L2Supply))
	if res.Violated {
		Evaluations.WithLabelValues(route.ID, match.Direction.String(), "violated").Inc()
		Violated.WithLabelValues(route.ID).Set(1)
	} else {
		Evaluations.WithLabelValues(route.ID, match.Direction.String(), "ok").Inc()
		Violated.WithLabelValues(route.ID).Set(0)
	}
	logger.WithFields(logrus.Fields{
		"l1_balance":      res.L1Balance.String(),
		"l2_supply":       res.L2Supply.String(),
		"l1_block_number": res.BlockNumber,
		"l2_block_number": res.L2BlockNumber,
		"violated":        res.Violated,
	}).Debug("evaluated bridge invariant")

	return h.emitter.Emit(route.AlertRoute(), match.Direction, event, res), nil
}
