package main

import (
	"fmt"
	"os"

	"rawhttpd/internal/bootstrap"
	"rawhttpd/internal/config"
	"rawhttpd/internal/logging"
	"rawhttpd/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port, root string

	cmd := &cobra.Command{
		Use:          "rawhttpd",
		Short:        "Serve a directory over HTTP/1.0 and HTTP/1.1",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.MustLoad()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			conf.Override(port, root)

			logger, err := logging.New(conf.LogLevel(), conf.Development())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			app, err := bootstrap.New(conf, logger)
			if err != nil {
				logger.Error("failed to bootstrap", zap.Error(err))
				return err
			}
			if err = app.Run(); err != nil {
				logger.Error("application stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides PORT")
	cmd.Flags().StringVarP(&root, "root", "r", "", "resource root directory, overrides ROOT_DIR")
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.GetVersion())
		},
	}
}
