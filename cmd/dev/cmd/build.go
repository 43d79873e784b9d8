package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const binary = "dist/regbus"

// BuildCmd builds the cli natively, or inside the gobuild docker image when
// cross compiling (cgo is required by the HID bridge).
func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the regbus cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			goos, _ := cmd.Flags().GetString("os")
			goarch, _ := cmd.Flags().GetString("arch")
			version, _ := cmd.Flags().GetString("version")
			inDocker, _ := cmd.Flags().GetBool("in-docker")
			if inDocker || (goos == runtime.GOOS && goarch == runtime.GOARCH) {
				slog.Info("building", "os", goos, "arch", goarch, "version", version)
				return build.GoBuild(binary, "./cmd/regbus", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          goarch,
					OS:            goos,
				})
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("cross compiling in docker", "os", goos, "arch", goarch)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, goarch),
				[]string{"build", "--version", version, "--os", goos, "--arch", goarch, "--in-docker"},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   "gophertribe/gobuild:1.25-bookworm",
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use docker cache")
	cmd.Flags().Bool("in-docker", false, "build natively even when the target differs (used inside the build image)")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "target os")
	cmd.Flags().String("arch", runtime.GOARCH, "target arch")
	return cmd
}

// DeployCmd copies the built cli to a board over scp.
func DeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <user@host>",
		Short: "Copy the built cli to a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, _ := cmd.Flags().GetString("dest")
			if _, err := os.Stat(binary); err != nil {
				return fmt.Errorf("nothing to deploy, run build first: %w", err)
			}
			target := fmt.Sprintf("%s:%s", args[0], dest)
			slog.Info("deploying", "binary", binary, "target", target)
			scp := exec.CommandContext(cmd.Context(), "scp", binary, target)
			scp.Stdout = os.Stdout
			scp.Stderr = os.Stderr
			err := scp.Run()
			if err != nil {
				return fmt.Errorf("scp failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("dest", "/usr/local/bin/regbus", "destination path on the board")
	return cmd
}
