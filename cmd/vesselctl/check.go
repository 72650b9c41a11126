package main

import (
	"fmt"

	"github.com/chazu/vesselkit/pkg/scene"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check script.vsl",
	Short: "Evaluate a vessel script and validate its scene",
	Long: `Evaluate a vessel script and validate the composed scene without
meshing anything. Script errors are printed with their line numbers and make
the command fail, as do blocking scene findings. Warnings such as unknown
attachment types are printed but do not.

Examples:
  vesselctl check fermenter.vsl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, d, err := loadScript(args[0])
		if err != nil {
			return err
		}
		for _, w := range d.Warnings {
			fmt.Printf("%s: warning: %s\n", args[0], w.Message)
		}
		findings := scene.Validate(s.Scene())
		for _, f := range findings {
			fmt.Printf("%s: %s\n", args[0], f.Error())
		}
		if scene.HasErrors(findings) {
			return fmt.Errorf("%s: scene is not valid", args[0])
		}
		fmt.Printf("%s: ok (%s vessel, %d attachments)\n", args[0], s.Spec().Shape, len(s.Frame().Attachments))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
