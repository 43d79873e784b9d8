package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return runner("test", "Run unit tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return runner("lint", "Run linters", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the tests that need real hardware attached.
func IntegrationTestCmd() *cobra.Command {
	return runner("integration-test", "Run hardware integration tests", func() error { return test.Integ() })
}

func runner(use, short string, fn func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := fn()
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}
