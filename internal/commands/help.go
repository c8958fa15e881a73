package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for bitelog",
	Long:  `Display detailed help for all bitelog commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp()
	},
}

func showCustomHelp() {
	fmt.Print(`
bitelog - eating session recorder and labeler

COMMANDS:

  record                  Record a video + motion session
    -c, --category        Category: eating|not-eating|none
    --no-ui               Record without the interactive monitor
    --for                 Stop after a duration (e.g. 30s, 2m)

    Monitor keys:
      r             Start recording (or resume after motion loss)
      s             Stop and save
      c             Cycle category
      x             Discard a paused session
      d             Toggle the simulated motion device
      q/esc         Quit (stops an active recording)

  ls                      List sessions, newest first
    --json                JSON output

  rm <session>...         Delete sessions and their metadata
  share <session>...      Mark sessions as shared, print their files

  label ls <session>               Show markers and segments
  label add <session> <time>...    Add markers (83.5, 83.5s, 1:23.5)
  label mv <session> <n|id> <time> Move a marker
  label rm <session> <n|id>...     Remove markers
  label apply <session>            Rewrite labels, mark session labelled

  doctor                  Check config, camera and motion
  version                 Print version information

CONFIG:

  $XDG_CONFIG_HOME/bitelog/config.toml (or ~/.config/bitelog/config.toml)
  Environment overrides: BITELOG_SESSIONS_DIR, BITELOG_DB_PATH,
  BITELOG_VIDEO_EXT, BITELOG_DEFAULT_CATEGORY, BITELOG_FLUSH_INTERVAL,
  BITELOG_MOTION_HZ

Not-eating sessions are labelled automatically when they stop. Eating and
uncategorized sessions need markers: every start/end pair becomes a segment
whose samples get label=true in the motion log.
`)
}
