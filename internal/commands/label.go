package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/bitelog/internal/labeling"
	"github.com/balkashynov/bitelog/internal/parser"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Edit the eating segments of a session",
	Long: `Place, move and remove markers on a session timeline. Markers pair up in
time order into start/end segments; samples inside a segment are labeled
true in the motion log, all others false. The log is rewritten after every
change.

Examples:
  bitelog label ls Eating-20250301-124502
  bitelog label add Eating-20250301-124502 12.5 1:03.2
  bitelog label mv Eating-20250301-124502 2 1:05
  bitelog label rm Eating-20250301-124502 3f9c`,
}

var labelListCmd = &cobra.Command{
	Use:   "ls <session>",
	Short: "Show markers and segments",
	Args:  cobra.ExactArgs(1),
	Run: withLabeling(func(cmd *cobra.Command, args []string, e *labeling.Engine) {
		printMarkers(e)
	}),
}

var labelAddCmd = &cobra.Command{
	Use:   "add <session> <time>...",
	Short: "Add markers",
	Args:  cobra.MinimumNArgs(2),
	Run: withLabeling(func(cmd *cobra.Command, args []string, e *labeling.Engine) {
		for _, raw := range args[1:] {
			t, err := parser.ParseOffset(raw)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			expected := e.NextMarkerKind(t)
			m := e.AddMarker(t)
			fmt.Printf("➕ %s marker at %s\n", m.Kind, parser.FormatOffset(m.Time))
			if m.Kind != expected {
				fmt.Printf("   (expected %s, another marker shares this time)\n", expected)
			}
		}
		printMarkers(e)
	}),
}

var labelMoveCmd = &cobra.Command{
	Use:   "mv <session> <marker> <time>",
	Short: "Move a marker",
	Long:  "Move a marker, given by its number in 'label ls' or an id prefix. The time is clamped to the session.",
	Args:  cobra.ExactArgs(3),
	Run: withLabeling(func(cmd *cobra.Command, args []string, e *labeling.Engine) {
		id, err := resolveMarker(e, args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		t, err := parser.ParseOffset(args[2])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		m, _ := e.MoveMarker(id, t)
		fmt.Printf("↔️  Moved marker to %s\n", parser.FormatOffset(m.Time))
		printMarkers(e)
	}),
}

var labelRemoveCmd = &cobra.Command{
	Use:   "rm <session> <marker>...",
	Short: "Remove markers",
	Args:  cobra.MinimumNArgs(2),
	Run: withLabeling(func(cmd *cobra.Command, args []string, e *labeling.Engine) {
		// Resolve everything first, numbers refer to the list before removal
		var ids []string
		for _, ref := range args[1:] {
			id, err := resolveMarker(e, ref)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			e.DeleteMarker(id)
		}
		fmt.Printf("➖ Removed %d marker(s)\n", len(ids))
		printMarkers(e)
	}),
}

var labelApplyCmd = &cobra.Command{
	Use:   "apply <session>",
	Short: "Rewrite the label column and mark the session labelled",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(cmd *cobra.Command, args []string, a *app) {
		e, err := openLabeling(a, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if e.HasUnclosedSegment() {
			fmt.Println("Error: the last segment has no end marker")
			return
		}
		if err := e.Apply(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := a.ctrl.SetLabelled(args[0], true); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✅ %s labelled (%d segment(s))\n", args[0], len(e.Segments()))
	}),
}

// openLabeling checks the session files before handing out an engine.
func openLabeling(a *app, name string) (*labeling.Engine, error) {
	f, err := a.ctrl.Lookup(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(f.VideoPath(a.cfg.VideoExt)); err != nil {
		return nil, fmt.Errorf("session %s has no video file", name)
	}
	if _, err := os.Stat(f.LogPath(a.cfg.VideoExt)); err != nil {
		fmt.Printf("⚠️  %s has no motion log, markers are saved but nothing is labeled\n", name)
	}
	return a.ctrl.OpenLabeling(name)
}

// withLabeling wraps a label subcommand to open the session's engine first
func withLabeling(fn func(*cobra.Command, []string, *labeling.Engine)) func(*cobra.Command, []string) {
	return withApp(func(cmd *cobra.Command, args []string, a *app) {
		e, err := openLabeling(a, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fn(cmd, args, e)

		// Drain label alerts raised by the mutation
		for {
			select {
			case alert := <-a.ctrl.Alerts():
				fmt.Printf("⚠️  %s: %v\n", alert.Message, alert.Err)
				continue
			default:
			}
			break
		}
	})
}

// resolveMarker accepts a 1-based position or a unique id prefix.
func resolveMarker(e *labeling.Engine, ref string) (string, error) {
	markers := e.Markers()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(markers) {
			return "", fmt.Errorf("marker %d out of range (1-%d)", n, len(markers))
		}
		return markers[n-1].ID, nil
	}

	var found string
	for _, m := range markers {
		if strings.HasPrefix(m.ID, ref) {
			if found != "" {
				return "", fmt.Errorf("marker id %q is ambiguous", ref)
			}
			found = m.ID
		}
	}
	if found == "" {
		return "", fmt.Errorf("no marker %q", ref)
	}
	return found, nil
}

func printMarkers(e *labeling.Engine) {
	markers := e.Markers()
	if len(markers) == 0 {
		fmt.Println("No markers.")
		return
	}

	fmt.Printf("%-3s %-10s %-6s %s\n", "#", "TIME", "KIND", "ID")
	for i, m := range markers {
		fmt.Printf("%-3d %-10s %-6s %s\n", i+1, parser.FormatOffset(m.Time), m.Kind, shortID(m.ID))
	}

	segs := e.Segments()
	fmt.Printf("\n%d segment(s)", len(segs))
	if d := e.Duration(); d > 0 {
		fmt.Printf(" over %s", parser.FormatOffset(d))
	}
	fmt.Println()
	for _, s := range segs {
		fmt.Printf("  %s → %s\n", parser.FormatOffset(s.Start), parser.FormatOffset(s.End))
	}
	if e.HasUnclosedSegment() {
		fmt.Println("  (last segment is not closed)")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	labelCmd.AddCommand(labelListCmd)
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelMoveCmd)
	labelCmd.AddCommand(labelRemoveCmd)
	labelCmd.AddCommand(labelApplyCmd)
}
