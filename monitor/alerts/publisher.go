package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/logging"
)

// Publisher delivers findings produced for a single transfer to an alert pipeline.
type Publisher interface {
	Publish(ctx context.Context, event *entity.TransferEvent, findings []*Finding) error
}

type MultiPublisher []Publisher

func (p MultiPublisher) Publish(ctx context.Context, event *entity.TransferEvent, findings []*Finding) error {
	var result *multierror.Error
	for _, publisher := range p {
		if err := publisher.Publish(ctx, event, findings); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type LogPublisher struct {
	logger logging.Logger
}

func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *entity.TransferEvent, findings []*Finding) error {
	for _, f := range findings {
		fields := logrus.Fields{
			"alert_id":     f.AlertID,
			"route_id":     f.RouteID,
			"severity":     f.Severity,
			"type":         f.Kind,
			"block_number": event.BlockNumber,
			"tx_hash":      event.TransactionHash,
		}
		for k, v := range f.Metadata.Fields() {
			fields["meta_"+k] = v
		}
		logger := p.logger.WithFields(fields)
		if f.Severity == SeverityCritical {
			logger.Error(f.Name)
		} else {
			logger.Info(f.Name)
		}
	}
	return nil
}

type MetricsPublisher struct{}

func (MetricsPublisher) Publish(_ context.Context, event *entity.TransferEvent, findings []*Finding) error {
	for _, f := range findings {
		FindingsTotal.WithLabelValues(f.RouteID, f.AlertID, string(f.Severity)).Inc()
		LastFindingBlock.WithLabelValues(f.RouteID, f.AlertID).Set(float64(event.BlockNumber))
	}
	return nil
}

type DBPublisher struct {
	repo entity.FindingsRepo
}

func NewDBPublisher(repo entity.FindingsRepo) *DBPublisher {
	return &DBPublisher{repo: repo}
}

func (p *DBPublisher) Publish(ctx context.Context, event *entity.TransferEvent, findings []*Finding) error {
	if len(findings) == 0 {
		return nil
	}
	records := make([]*entity.Finding, len(findings))
	for i, f := range findings {
		record, err := NewFindingRecord(event, f)
		if err != nil {
			return err
		}
		records[i] = record
	}
	if err := p.repo.Ensure(ctx, records...); err != nil {
		return fmt.Errorf("can't save findings: %w", err)
	}
	return nil
}

func NewFindingRecord(event *entity.TransferEvent, f *Finding) (*entity.Finding, error) {
	metadata, err := json.Marshal(f.Metadata.Fields())
	if err != nil {
		return nil, fmt.Errorf("can't marshal finding metadata: %w", err)
	}
	return &entity.Finding{
		AlertID:         f.AlertID,
		RouteID:         f.RouteID,
		Name:            f.Name,
		Description:     f.Description,
		Severity:        string(f.Severity),
		Kind:            string(f.Kind),
		Metadata:        metadata,
		ChainID:         event.ChainID,
		BlockNumber:     event.BlockNumber,
		LogIndex:        event.LogIndex,
		TransactionHash: event.TransactionHash,
	}, nil
}
