package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/pkg/placement"
	"github.com/matzehuels/popover/pkg/scenario"
)

// initCommand creates the init command that writes an example scenario.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write an example scenario file",
		Long: `Write an example scenario file.

The format follows the file extension (.toml, .yaml, .yml or .json) and
defaults to scenario.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenario.toml"
			if len(args) == 1 {
				path = args[0]
			}
			return writeExampleScenario(path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func writeExampleScenario(path string, force bool) error {
	format, err := scenario.FormatFromPath(path)
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := scenario.Encode(f, exampleScenario(), format); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Created example scenario")
	printFile(path)
	printNextStep("Compute it", appName+" place --preview "+path)
	return nil
}

// exampleScenario is an overflow menu near the top right of a phone screen.
func exampleScenario() *scenario.Scenario {
	visible := true
	return &scenario.Scenario{
		Name:        "overflow menu",
		Description: "Menu opened from a toolbar button near the top right corner",
		Viewport:    scenario.Viewport{Width: 390, Height: 844, DeviceClass: placement.Compact.String()},
		Anchor:      &scenario.Anchor{PageX: 340, PageY: 60, Width: 40, Height: 40},
		Content:     scenario.Size{Width: 220, Height: 180},
		Constraints: scenario.Constraints{MinWidth: placement.Percent(40), MaxHeight: placement.Px(320)},
		Flags:       scenario.Flags{Visible: &visible},
	}
}
