package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/account"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/binary"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/command"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/platform"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/privilege"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/requirement"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/service"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/transaction"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/ui"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/version"
)

// runInstall wires the pipeline from configuration and runs it once. The
// error return is for setup failures before the pipeline starts.
func runInstall(ctx context.Context, stdout, stderr io.Writer) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return pipeline.ExitFailure, err
	}

	base, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return pipeline.ExitFailure, err
	}
	defer base.Sync() //nolint:errcheck

	lock, err := transaction.AcquireLock(ctx, cfg.DataDir)
	if err != nil {
		return pipeline.ExitFailure, fmt.Errorf("acquire install lock: %w", err)
	}
	defer lock.Release()

	logger := base.With("run", lock.RunID())

	productVersion := version.NormalizeProduct(Version)
	target := binary.DockerTarget(productVersion, cfg.URLTemplate, cfg.BinDir)
	logger.Debugw("installing docker", "version", productVersion, "url_template", cfg.URLTemplate)

	archives, err := binary.NewManager(binary.Config{
		DataDir:    cfg.DataDir,
		CacheDir:   cfg.CacheDir,
		MarkerPath: cfg.MarkerPath(),
		Logger:     logger,
	})
	if err != nil {
		return pipeline.ExitFailure, err
	}

	runner := command.NewRunner()
	exec := privilege.NewSudoExecutor(runner, privilege.NewTermPrompter(), privilege.WithLogger(logger))

	p := pipeline.New(target, pipeline.Dependencies{
		Detector:     platform.NewDetector(),
		Gate:         platform.NewGate(logger),
		Checker:      requirement.NewChecker(runner, logger),
		Requirements: requirement.Defaults,
		Runner:       runner,
		Archives:     archives,
		Executor:     exec,
		Service:      service.NewReconciler(exec, service.ProcessTable{}, service.DockerProber{}, cfg.SystemdDir, cfg.BinDir, logger),
		Accounts:     account.NewProvisioner(exec, logger),
		User:         account.InvokingUser,
		Clock:        pipeline.RealClock{},
		Observer:     ui.NewProgress(stderr),
		Logger:       logger,
	})

	out := p.Run(ctx)
	if out.Succeeded() {
		fmt.Fprintln(stdout, ui.Result(out, productVersion))
	} else {
		fmt.Fprintln(stderr, ui.Result(out, productVersion))
	}
	return out.ExitCode(), nil
}
