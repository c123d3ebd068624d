package repository

import (
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/repository/postgres"
)

type Repo struct {
	LogsCursors entity.LogsCursorsRepo
	Logs        entity.LogsRepo
	Findings    entity.FindingsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		LogsCursors: postgres.NewLogsCursorRepo("logs_cursors", db),
		Logs:        postgres.NewLogsRepo("logs", db),
		Findings:    postgres.NewFindingsRepo("findings", db),
	}
}
