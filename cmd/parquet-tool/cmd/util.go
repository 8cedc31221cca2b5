package cmd

import (
	"context"
	"path/filepath"
	"time"
	_ "time/tzdata" // --timezone must work on hosts without zoneinfo

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polarsignals/pqexplorer"
	"github.com/polarsignals/pqexplorer/storage"
)

var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4"))

var EvenRowStyle = lipgloss.NewStyle().
	Bold(false).
	Foreground(lipgloss.Color("#FAFAFA"))

var OddRowStyle = lipgloss.NewStyle().
	Bold(false).
	Foreground(lipgloss.Color("#a6a4a4"))

// openSource serves the directory of file and returns the name of file in it.
func openSource(cfg *Config, file string) (*storage.BucketSource, string, error) {
	maxSize, err := cfg.maxSize()
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, "", err
	}
	src, err := storage.NewFileSource(filepath.Dir(abs), storage.WithMaxSize(maxSize))
	if err != nil {
		return nil, "", err
	}
	return src, filepath.Base(abs), nil
}

func newProcessor(cfg *Config, src storage.Source, options ...pqexplorer.Option) (*pqexplorer.Processor, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", cfg.Timezone)
	}
	return pqexplorer.New(
		cfg.logger(),
		prometheus.NewRegistry(),
		append([]pqexplorer.Option{
			pqexplorer.WithSource(src),
			pqexplorer.WithRowCap(cfg.RowCap),
			pqexplorer.WithTimestampFormat(cfg.TimestampFormat),
			pqexplorer.WithDateFormat(cfg.DateFormat),
			pqexplorer.WithLocation(loc),
		}, options...)...,
	)
}

// process decodes file with the settings of cfg.
func process(ctx context.Context, cfg *Config, file string, options ...pqexplorer.Option) (*pqexplorer.Result, error) {
	src, name, err := openSource(cfg, file)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	p, err := newProcessor(cfg, src, options...)
	if err != nil {
		return nil, err
	}
	res, err := p.ProcessFile(ctx, name)
	if err != nil {
		return nil, errors.New(pqexplorer.UserMessage(err))
	}
	return res, nil
}
