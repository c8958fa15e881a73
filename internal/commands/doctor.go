package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and hardware",
	Args:  cobra.NoArgs,
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		cfgPath := a.cfg.Path
		if cfgPath == "" {
			cfgPath = "(defaults)"
		}
		fmt.Printf("Config:      %s\n", cfgPath)
		fmt.Printf("Sessions:    %s\n", a.cfg.SessionsDir)
		fmt.Printf("Database:    %s\n", a.cfg.DBPath)
		fmt.Printf("Flush:       every %s\n", a.cfg.FlushInterval)
		fmt.Printf("Motion poll: every %s, probe timeout %s\n", a.cfg.PollInterval, a.cfg.ProbeTimeout)
		fmt.Println()

		if stale, err := a.ctrl.StaleMetadata(); err != nil {
			fmt.Printf("❌ Metadata: %v\n", err)
		} else if len(stale) > 0 {
			fmt.Printf("⚠️  Metadata: %d entries without a session folder (%s)\n", len(stale), strings.Join(stale, ", "))
		} else {
			fmt.Println("✅ Metadata: consistent with session folders")
		}

		if err := a.ctrl.StartPreview(); err != nil {
			fmt.Printf("❌ Camera: %v\n", err)
		} else {
			fmt.Printf("✅ Camera: %d fps\n", a.cfg.CameraFPS)
		}

		if a.ctrl.CheckReadiness(context.Background()) {
			fmt.Printf("✅ Motion: streaming at %d Hz\n", a.cfg.MotionHz)
		} else {
			fmt.Printf("❌ Motion: no samples within %s\n", a.cfg.ProbeTimeout)
		}
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bitelog %s (commit %s, built %s)\n", version, commit, date)
	},
}
