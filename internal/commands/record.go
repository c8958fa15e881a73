package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/bitelog/internal/parser"
	"github.com/balkashynov/bitelog/internal/session"
	"github.com/balkashynov/bitelog/internal/tui"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a session",
	Long: `Record a video + motion session. Opens the recording monitor by default,
use --no-ui to record headless until --for elapses or Ctrl+C.

Examples:
  bitelog record                         # Monitor, pick category with 'c'
  bitelog record --category eating       # Preselect a category
  bitelog record --no-ui --for 30s       # Headless 30 second session`,
	Args: cobra.NoArgs,
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		if flag, _ := cmd.Flags().GetString("category"); flag != "" {
			cat, err := parser.ParseCategory(flag)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			a.ctrl.SetCategory(cat)
		}

		if err := a.ctrl.StartPreview(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if !noUI {
			if err := tui.RunRecordTUI(a.ctrl, a.toggleMotion); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			return
		}

		limit, _ := cmd.Flags().GetDuration("for")
		recordHeadless(a.ctrl, limit)
	}),
}

// recordHeadless records one session until limit elapses or an interrupt.
func recordHeadless(ctrl *session.Controller, limit time.Duration) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	go ctrl.Run(monitorCtx)

	name, err := ctrl.Start()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("⏺️  Recording %s (Ctrl+C to stop)\n", name)

	// Print alerts while recording
	done := ctx.Done()
	for {
		select {
		case alert := <-ctrl.Alerts():
			if alert.Err != nil {
				fmt.Printf("⚠️  %s: %v\n", alert.Message, alert.Err)
			} else {
				fmt.Printf("⚠️  %s\n", alert.Message)
			}
			continue
		case <-done:
		}
		break
	}

	res, ok := ctrl.StopAndWait()
	if !ok {
		if last, had := ctrl.Last(); had && last.Paused {
			fmt.Printf("⏸  %s ended when motion was lost\n", last.Name)
		}
		return
	}

	fmt.Printf("⏹️  Stopped recording %s\n", res.Name)
	fmt.Printf("🎞️  %d frames written, %d dropped\n", res.Frames, res.Dropped)
	if res.LogPath == "" {
		fmt.Println("🎧 No motion data (video only)")
	}
}

func init() {
	recordCmd.Flags().StringP("category", "c", "", "Category: eating|not-eating|none")
	recordCmd.Flags().Bool("no-ui", false, "Record without the interactive monitor")
	recordCmd.Flags().Duration("for", 0, "Stop after this long (headless only)")
}
