package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/bitelog/internal/session"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List sessions",
	Long:    "List recorded sessions, newest first, with their labelled and shared flags",
	Args:    cobra.NoArgs,
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		folders, err := a.ctrl.ListSessions()
		if err != nil {
			fmt.Printf("Error fetching sessions: %v\n", err)
			return
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printSessionsJSON(folders)
			return
		}

		if len(folders) == 0 {
			fmt.Println("No sessions found. Use 'bitelog record' to record your first session.")
			return
		}

		// Print table header
		fmt.Printf("%-34s %-11s %-20s %-9s %s\n", "SESSION", "CATEGORY", "CREATED", "LABELLED", "SHARED")
		fmt.Println(strings.Repeat("-", 84))

		for _, f := range folders {
			name := f.Name
			if len(name) > 33 {
				name = name[:30] + "..."
			}
			fmt.Printf("%-34s %-11s %-20s %-9s %s\n",
				name,
				f.Category,
				f.CreatedAt.Format("2006-01-02 15:04:05"),
				yesNo(f.Meta.Labelled),
				yesNo(f.Meta.Shared))
		}
	}),
}

type sessionJSON struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Category string    `json:"category"`
	Created  time.Time `json:"created"`
	Labelled bool      `json:"labelled"`
	Shared   bool      `json:"shared"`
}

func printSessionsJSON(folders []session.Folder) {
	out := make([]sessionJSON, 0, len(folders))
	for _, f := range folders {
		out = append(out, sessionJSON{
			Name:     f.Name,
			Path:     f.Path,
			Category: f.Category.String(),
			Created:  f.CreatedAt,
			Labelled: f.Meta.Labelled,
			Shared:   f.Meta.Shared,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

var rmCmd = &cobra.Command{
	Use:   "rm <session>...",
	Short: "Delete sessions",
	Long:  "Delete session folders together with their metadata and markers",
	Args:  cobra.MinimumNArgs(1),
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		for _, name := range args {
			if err := a.ctrl.DeleteSession(name); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("🗑️  Deleted %s\n", name)
		}
	}),
}

var shareCmd = &cobra.Command{
	Use:   "share <session>...",
	Short: "Mark sessions as shared",
	Long: `Mark sessions as shared and print the files to hand over.
Sessions that still need labeling are reported but shared anyway.`,
	Args: cobra.MinimumNArgs(1),
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		var names []string
		for _, name := range args {
			f, err := a.ctrl.Lookup(name)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if !f.Meta.Labelled {
				fmt.Printf("⚠️  %s is not labelled yet\n", name)
			}
			fmt.Println(f.VideoPath(a.cfg.VideoExt))
			if _, err := os.Stat(f.LogPath(a.cfg.VideoExt)); err == nil {
				fmt.Println(f.LogPath(a.cfg.VideoExt))
			}
			names = append(names, name)
		}

		if err := a.ctrl.MarkShared(names...); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(names) > 0 {
			fmt.Printf("📤 Marked %d session(s) as shared\n", len(names))
		}
	}),
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func init() {
	listCmd.Flags().Bool("json", false, "JSON output")
}
