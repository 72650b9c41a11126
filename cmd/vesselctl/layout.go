package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [script.vsl]",
	Short: "Print the vessel envelope and attachment layout",
	Long: `Evaluate a vessel script and print the derived envelope and the
position of every attachment. Without a script the default vessel is shown.

Examples:
  vesselctl layout
  vesselctl layout fermenter.vsl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	s, d, err := loadScript(path)
	if err != nil {
		return err
	}

	spec, env := s.Spec(), s.Envelope()
	fmt.Println()
	fmt.Println("VESSEL:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Shape\t%s, %s\n", spec.Shape, spec.Orientation)
	fmt.Fprintf(w, "  Height\t%.0f mm\n", spec.HeightMm)
	fmt.Fprintf(w, "  Cross section\t%.0f mm\n", spec.CrossSectionMm())
	fmt.Fprintf(w, "  Caps (top/bottom)\t%s / %s\n", spec.TopCap, spec.BottomCap)
	fmt.Fprintf(w, "  Legs\t%d x %.3f m\n", spec.LegCount, env.LegHeight)
	fmt.Fprintf(w, "  Radius\t%.3f m\n", env.Radius)
	fmt.Fprintf(w, "  Centre height\t%.3f m\n", env.CenterY)
	fmt.Fprintf(w, "  Top\t%.3f m\n", env.Top())
	fmt.Fprintf(w, "  Orbit distance\t%.3f m\n", attach.OrbitDistance(env))
	w.Flush()

	fmt.Println()
	fmt.Println("ATTACHMENTS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	frame := s.Frame()
	if len(frame.Attachments) == 0 {
		fmt.Println("  (none)")
	}
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(frame.Attachments) > 0 {
		fmt.Fprintln(w, "  ID\tSIZE\tX\tY\tZ\tYAW\tPLACED")
	}
	for _, p := range frame.Attachments {
		placed := "default"
		if p.Moved {
			placed = "user"
		}
		fmt.Fprintf(w, "  %s\t%s\t%.3f\t%.3f\t%.3f\t%.1f\t%s\n",
			p.ID, p.Size, p.Position.X, p.Position.Y, p.Position.Z, p.Rotation.Y, placed)
	}
	w.Flush()

	for _, warn := range d.Warnings {
		fmt.Printf("\n  warning: %s\n", warn.Message)
	}
	fmt.Println()
	return nil
}
