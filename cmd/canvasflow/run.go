package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"

	"github.com/kbukum/canvasflow/bootstrap"
	"github.com/kbukum/canvasflow/engine"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/observability"
	"github.com/kbukum/canvasflow/storage"
	"github.com/kbukum/canvasflow/workflow"
)

// runWorkflow executes one workflow file and prints the result as JSON.
// A failed execution exits with code 1.
func runWorkflow(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf configFlags
	cf.register(fs)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return &exitError{code: 2, msg: "usage: canvasflow run [flags] <workflow.json|yaml>"}
	}

	doc, err := workflow.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	a, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return err
	}

	telemetry := observability.NewComponent(cfg.Observability, a.Name, a.Version, a.Logger)
	artifacts := storage.NewComponent(cfg.Storage, a.Logger)
	if err := a.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := a.RegisterComponent(artifacts); err != nil {
		return err
	}

	var result engine.ExecutionResult
	err = a.RunTask(ctx, func(ctx context.Context) error {
		in := &infrastructure{telemetry: telemetry, storage: artifacts}
		invoker, err := newInvoker(cfg, a.Logger, telemetry.Metrics(), in.artifactStore(cfg, a.Logger))
		if err != nil {
			return err
		}
		executor := engine.New(invoker, engine.WithLogger(a.Logger), engine.WithMetrics(telemetry.Metrics()))
		result = execute(ctx, executor, doc, a.Logger)
		return nil
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		return &exitError{code: 1}
	}
	return nil
}

func execute(ctx context.Context, executor *engine.Executor, doc *workflow.Document, log *logger.Logger) engine.ExecutionResult {
	log = log.WithFields(logger.Fields("title", doc.Title))
	for _, w := range workflow.Warnings(doc.Nodes, doc.Edges) {
		log.Warn(w)
	}
	return executor.Execute(ctx, doc.Nodes, doc.Edges, func(u workflow.NodeUpdate) {
		fields := logger.Fields(logger.FieldNodeID, u.NodeID, logger.FieldStatus, string(u.Status))
		if u.Error != nil {
			fields[logger.FieldError] = *u.Error
			log.Error("node failed", fields)
			return
		}
		if u.Status != "" {
			log.Info("node update", fields)
		}
	})
}
