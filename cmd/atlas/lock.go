package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/atlas/pkg/ports"
	"github.com/spf13/cobra"
)

// lockPollInterval is how often a waiting acquire retries.
const lockPollInterval = 250 * time.Millisecond

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manage the narrative edit lock",
	Long: `Agents editing the narrative sources take the edit lock first so that two
editors never rewrite the same files at once. The lock lives in a file
(--lock-file) or, with --redis-addr, in Redis.`,
}

var lockAcquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Take the edit lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, _ := cmd.Flags().GetString("agent")
		operation, _ := cmd.Flags().GetString("operation")
		wait, _ := cmd.Flags().GetDuration("wait")

		locker, closeLocker := newLocker()
		defer closeLocker()

		info := lockInfo(agent, operation)
		var err error
		if wait > 0 {
			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			err = ports.AcquireWait(ctx, locker, info, lockPollInterval)
		} else {
			err = locker.Acquire(cmd.Context(), info)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lock acquired by %s\n", info)
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the edit lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, _ := cmd.Flags().GetString("agent")
		force, _ := cmd.Flags().GetBool("force")
		if agent == "" {
			agent = settings.Agent
		}

		locker, closeLocker := newLocker()
		defer closeLocker()

		if err := locker.Release(cmd.Context(), agent, force); err != nil {
			if errors.Is(err, ports.ErrNotOwner) {
				return fmt.Errorf("%w (use --force to override)", err)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Lock released")
		return nil
	},
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the edit lock holder",
	Long:  `Prints the current holder. With --check, exits non-zero while the lock is held.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")

		locker, closeLocker := newLocker()
		defer closeLocker()

		holder, err := locker.Status(cmd.Context())
		if err != nil {
			return err
		}
		if holder == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Unlocked")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Locked by %s\n", holder)
		if check {
			return &ports.LockHeldError{Holder: *holder}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.AddCommand(lockAcquireCmd, lockReleaseCmd, lockStatusCmd)

	lockAcquireCmd.Flags().String("agent", "", "Agent name (defaults to ATLAS_AGENT)")
	lockAcquireCmd.Flags().String("operation", "edit", "What the agent is about to do")
	lockAcquireCmd.Flags().Duration("wait", 0, "How long to wait for a held lock")

	lockReleaseCmd.Flags().String("agent", "", "Agent name (defaults to ATLAS_AGENT)")
	lockReleaseCmd.Flags().Bool("force", false, "Release regardless of holder")

	lockStatusCmd.Flags().Bool("check", false, "Fail while the lock is held")
}
