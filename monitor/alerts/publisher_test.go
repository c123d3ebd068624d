package alerts_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
)

var errPublish = errors.New("publish failed")

type recordingPublisher struct {
	calls int
	err   error
}

func (p *recordingPublisher) Publish(context.Context, *entity.TransferEvent, []*alerts.Finding) error {
	p.calls++
	return p.err
}

type memFindingsRepo struct {
	saved []*entity.Finding
}

func (r *memFindingsRepo) Ensure(_ context.Context, findings ...*entity.Finding) error {
	r.saved = append(r.saved, findings...)
	return nil
}

func (r *memFindingsRepo) Find(context.Context, *entity.FindingsFilter) ([]*entity.Finding, error) {
	return r.saved, nil
}

func (r *memFindingsRepo) FindByTxHash(context.Context, common.Hash) ([]*entity.Finding, error) {
	return r.saved, nil
}

func violationFindings(t *testing.T) (*entity.TransferEvent, []*alerts.Finding) {
	t.Helper()

	event := transfer(user, escrow, 10)
	event.TransactionHash = common.HexToHash("0x01")
	event.LogIndex = 3
	findings := alerts.NewEmitter("Dai").Emit(testRoute, entity.DirectionL1ToL2Deposit, event, &entity.InvariantResult{
		L1Balance: big.NewInt(900),
		L2Supply:  big.NewInt(1000),
		Violated:  true,
	})
	require.Len(t, findings, 2)
	return event, findings
}

func TestMultiPublisher(t *testing.T) {
	t.Parallel()

	event, findings := violationFindings(t)
	first := &recordingPublisher{err: errPublish}
	second := &recordingPublisher{}
	err := alerts.MultiPublisher{first, second}.Publish(context.Background(), event, findings)
	require.ErrorIs(t, err, errPublish)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)

	require.NoError(t, alerts.MultiPublisher{second}.Publish(context.Background(), event, findings))
}

func TestDBPublisher(t *testing.T) {
	t.Parallel()

	event, findings := violationFindings(t)
	repo := new(memFindingsRepo)
	require.NoError(t, alerts.NewDBPublisher(repo).Publish(context.Background(), event, findings))
	require.Len(t, repo.saved, 2)

	record := repo.saved[1]
	require.Equal(t, "OPTSM-INVRNT-1", record.AlertID)
	require.Equal(t, "Critical", record.Severity)
	require.Equal(t, "Exploit", record.Kind)
	require.Equal(t, event.TransactionHash, record.TransactionHash)
	require.Equal(t, uint(3), record.LogIndex)

	var metadata map[string]string
	require.NoError(t, json.Unmarshal(record.Metadata, &metadata))
	require.Equal(t, map[string]string{"l1Balance": "900", "l2Supply": "1000"}, metadata)

	require.NoError(t, alerts.NewDBPublisher(repo).Publish(context.Background(), event, nil))
	require.Len(t, repo.saved, 2)
}

func TestMetricsPublisher(t *testing.T) {
	t.Parallel()

	event, findings := violationFindings(t)
	for i := range findings {
		f := *findings[i]
		f.RouteID = "metrics-test"
		findings[i] = &f
	}
	require.NoError(t, alerts.MetricsPublisher{}.Publish(context.Background(), event, findings))
	require.Equal(t, 1.0, testutil.ToFloat64(alerts.FindingsTotal.WithLabelValues("metrics-test", "OPTSM-INVRNT-1", "Critical")))
	require.Equal(t, 100.0, testutil.ToFloat64(alerts.LastFindingBlock.WithLabelValues("metrics-test", "OPTSM-DPST-1")))
}

func TestLogPublisher(t *testing.T) {
	t.Parallel()

	event, findings := violationFindings(t)
	require.NoError(t, alerts.NewLogPublisher(logging.Discard()).Publish(context.Background(), event, findings))
}
