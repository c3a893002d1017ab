package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, commit and Go runtime",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("triage version %s\n", version)
		if rev := vcsRevision(); rev != "" {
			cmd.Printf("commit: %s\n", rev)
		}
		cmd.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// vcsRevision returns the short commit the binary was built from, if the
// toolchain stamped one.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
