package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/atlas"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/blueprint"
	"github.com/aretw0/atlas/pkg/content"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build, validate and assemble the narrative document",
	Long: `Runs the full pipeline on a blueprint (the built-in content when none is given),
writes the assembled document and prints a summary.
Nothing is written when a fatal violation is found, or while another agent
holds the edit lock.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("blueprint")
		if !cmd.Flags().Changed("blueprint") {
			path = settings.Blueprint
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		takeLock, wait := lockFlags(cmd)
		return runBuild(cmd.Context(), cmd.OutOrStdout(), path, dryRun, takeLock, wait)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("blueprint", "", "Blueprint descriptor (.yaml or .json)")
	buildCmd.Flags().Bool("dry-run", false, "Validate and report without writing the document")
	addLockFlags(buildCmd)
}

func addLockFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("lock", false, "Hold the narrative edit lock while writing")
	cmd.Flags().Duration("wait", 0, "How long to wait for the edit lock")
}

func lockFlags(cmd *cobra.Command) (bool, time.Duration) {
	takeLock, _ := cmd.Flags().GetBool("lock")
	wait, _ := cmd.Flags().GetDuration("wait")
	return takeLock, wait
}

func runBuild(ctx context.Context, w io.Writer, path string, dryRun, takeLock bool, wait time.Duration) error {
	bp, err := loadBlueprint(path)
	if err != nil {
		return err
	}

	if !dryRun {
		release, err := guardWrite(ctx, "build "+settings.Out, takeLock, wait)
		if err != nil {
			return err
		}
		defer release()
	}

	engine, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := engine.Build(ctx, bp)
	if err != nil {
		printViolations(os.Stderr, err)
		return err
	}
	printWarnings(res)

	if !dryRun {
		if err := fileAdapter.WriteDocument(settings.Out, res.Document); err != nil {
			return err
		}
		logger.Info("document written", "path", settings.Out, "nodes", len(res.Document.Nodes))
	}

	report.Print(w, res.Summary)
	if res.Record != nil {
		fmt.Fprintf(w, "\nBuild %s recorded", res.Record.ID)
		if res.Record.Unchanged {
			fmt.Fprint(w, " (unchanged)")
		}
		fmt.Fprintln(w)
	}
	return nil
}

func loadBlueprint(path string) (*blueprint.Blueprint, error) {
	if path == "" {
		return content.Default()
	}
	return blueprint.Load(path)
}

// guardWrite is called before the output document is written. With takeLock
// it holds the edit lock until the returned release runs; otherwise it only
// refuses to write while another agent holds the lock.
func guardWrite(ctx context.Context, operation string, takeLock bool, wait time.Duration) (func(), error) {
	if takeLock {
		return holdLock(ctx, operation, wait)
	}

	locker, closeLocker := newLocker()
	defer closeLocker()

	holder, err := locker.Status(ctx)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.Agent != lockInfo("", operation).Agent {
		return nil, &ports.LockHeldError{Holder: *holder}
	}
	return func() {}, nil
}

// holdLock acquires the edit lock, polling until wait elapses.
func holdLock(ctx context.Context, operation string, wait time.Duration) (func(), error) {
	locker, closeLocker := newLocker()
	info := lockInfo("", operation)

	var err error
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		err = ports.AcquireWait(waitCtx, locker, info, lockPollInterval)
	} else {
		err = locker.Acquire(ctx, info)
	}
	if err != nil {
		closeLocker()
		return nil, err
	}

	return func() {
		if err := locker.Release(context.Background(), info.Agent, false); err != nil {
			logger.Warn("lock release failed", "err", err)
		}
		closeLocker()
	}, nil
}

func printWarnings(res *atlas.Result) {
	for _, v := range res.Report.Warnings() {
		logger.Warn(v.Error(), "kind", v.Kind())
	}
}

func printViolations(w io.Writer, err error) {
	for _, v := range domain.Violations(err) {
		fmt.Fprintf(w, "  [%s] %s: %v\n", v.Severity(), v.Kind(), v)
	}
}
