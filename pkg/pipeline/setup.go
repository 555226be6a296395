package pipeline

import (
	"context"
	"fmt"

	"exportsync/pkg/config"
	"exportsync/pkg/history"
	"exportsync/pkg/policy"
	"exportsync/pkg/sheets"
	"exportsync/pkg/syncer"
)

// FromConfig connects to the spreadsheet, loads the policies and opens the
// run ledger. The returned store is owned by the caller.
func FromConfig(ctx context.Context, cfg *config.Config) (*Runner, *history.Store, error) {
	if err := cfg.ValidateSync(); err != nil {
		return nil, nil, err
	}

	registry, err := policy.LoadRegistry(cfg.PolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load policies: %w", err)
	}

	client, err := sheets.NewClient(ctx, cfg.CredentialsFile, cfg.SpreadsheetID,
		sheets.WithRequestsPerMinute(cfg.RequestsPerMinute),
		sheets.WithValueInputOption(cfg.ValueInputOption),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	runner := NewRunner(syncer.NewEngine(client, registry), store, Options{
		DownloadDir:     cfg.DownloadDir,
		DownloadPattern: cfg.DownloadPattern,
		DownloadTimeout: cfg.DownloadTimeout,
		OutputJSON:      cfg.OutputJSON,
		DeleteSource:    cfg.DeleteSource,
	})
	return runner, store, nil
}
