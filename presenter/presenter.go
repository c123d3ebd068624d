package presenter

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/logging"
	middleware2 "github.com/poanetwork/escrow-monitor/presenter/http/middleware"
	"github.com/poanetwork/escrow-monitor/presenter/http/render"
	"github.com/poanetwork/escrow-monitor/repository"
)

const latestFindingsLimit = 10

type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	cfg    *config.Config
	root   chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, cfg *config.Config) *Presenter {
	p := &Presenter{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		root:   chi.NewMux(),
	}
	p.root.Use(middleware.Throttle(5))
	p.root.Use(middleware.RequestID)
	p.root.Use(middleware2.NewLoggerMiddleware(logger))
	p.root.Use(middleware2.Recoverer)

	p.root.Get("/routes", p.GetRoutes)
	p.root.Route("/routes/{routeID:[0-9a-zA-Z_\\-]+}", func(r chi.Router) {
		r.Use(middleware2.GetRouteConfigMiddleware(cfg))
		r.Get("/", p.GetRouteStatus)
	})
	p.root.With(middleware2.GetFindingsFilterMiddleware).Get("/findings", p.GetFindings)
	p.root.With(middleware2.GetTxHashMiddleware).Get("/tx/{txHash:0x[0-9a-fA-F]{64}}", p.SearchTx)
	return p
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root) //nolint:gosec
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

func (p *Presenter) GetRoutes(w http.ResponseWriter, r *http.Request) {
	res := make([]*RouteInfo, len(p.cfg.Routes))
	for i, route := range p.cfg.Routes {
		res[i] = routeToInfo(route)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetRouteStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routeCfg := middleware2.RouteConfig(ctx)

	res := &RouteStatus{
		RouteInfo: routeToInfo(routeCfg),
		L1ChainID: p.cfg.L1.Chain.ChainID,
	}

	cursor, err := p.repo.LogsCursors.GetByChainIDAndAddress(ctx, p.cfg.L1.Chain.ChainID, p.cfg.L1.TokenAddress)
	if err = db.IgnoreErrNotFound(err); err != nil {
		render.Error(w, r, fmt.Errorf("failed to get logs cursor: %w", err))
		return
	}
	if cursor != nil {
		res.LastFetchedBlock = cursor.LastFetchedBlock
		res.LastProcessedBlock = cursor.LastProcessedBlock
	}

	findings, err := p.repo.Findings.Find(ctx, &entity.FindingsFilter{
		RouteID: routeCfg.ID,
		Limit:   latestFindingsLimit,
	})
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find latest findings: %w", err))
		return
	}
	res.LatestFindings = findingsToResults(findings)

	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetFindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := middleware2.FindingsFilter(ctx)

	findings, err := p.repo.Findings.Find(ctx, filter)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find findings: %w", err))
		return
	}
	render.JSON(w, r, http.StatusOK, findingsToResults(findings))
}

func (p *Presenter) SearchTx(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txHash := middleware2.TxHash(ctx)

	logs, err := p.repo.Logs.FindByTxHash(ctx, txHash)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find logs by tx hash: %w", err))
		return
	}
	findings, err := p.repo.Findings.FindByTxHash(ctx, txHash)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find findings by tx hash: %w", err))
		return
	}
	if len(logs) == 0 && len(findings) == 0 {
		render.Message(w, r, http.StatusNotFound, fmt.Sprintf("transaction %s is not known", txHash))
		return
	}

	res := &TxResult{
		TxHash:   txHash,
		Logs:     make([]*LogResult, len(logs)),
		Findings: findingsToResults(findings),
	}
	for i, log := range logs {
		res.Logs[i] = logToResult(log)
	}
	render.JSON(w, r, http.StatusOK, res)
}
