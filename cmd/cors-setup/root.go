package main

import (
	"fmt"
	"io"

	"github.com/guided-traffic/cors-setup/internal/config"
	"github.com/guided-traffic/cors-setup/internal/cors"
	"github.com/guided-traffic/cors-setup/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cors-setup",
		Short: "Generate a CORS configuration file for a storage bucket",
		Long: `cors-setup writes the CORS rules for a storage bucket to a local JSON file
and prints how to apply it with gsutil or the Firebase Console.

Nothing is sent to the bucket: applying the file is a manual step.

Every value can be set in a YAML file (--config, or .cors-setup.yaml in the
home directory, ./ or ./config) or through CORS_SETUP_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.InitConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"output_file": "output",
				"bucket":      "bucket",
				"project":     "project",
			}); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return generate(afero.NewOsFs(), cmd.OutOrStdout(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML format)")
	rootCmd.Flags().String("output", cors.DefaultFileName, "path of the generated CORS JSON file")
	rootCmd.Flags().String("bucket", config.DefaultBucket, "bucket name used in the gsutil command")
	rootCmd.Flags().String("project", config.DefaultProject, "project name used in the console steps")

	rootCmd.AddCommand(newCheckCmd(), newExportS3Cmd(), newServeCmd())

	return rootCmd
}

// generate writes the CORS file and prints the manual apply instructions.
// Nothing is printed when the file cannot be written.
func generate(fs afero.Fs, out io.Writer, cfg *config.Config) error {
	logger := logrus.WithField("component", "generator")

	rules := cors.Build(cfg.Policy())
	serialized, err := cors.Marshal(rules)
	if err != nil {
		return err
	}

	if err := cors.NewFileWriter(fs, logger).Write(cfg.OutputFile, serialized); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"file":   cfg.OutputFile,
		"rules":  len(rules),
		"bucket": cfg.Bucket,
	}).Debug("Generated CORS configuration")

	return report.NewReporter(out).Print(report.Instructions{
		File:       cfg.OutputFile,
		Bucket:     cfg.Bucket,
		Project:    cfg.Project,
		ConsoleURL: cfg.ConsoleURL,
	}, serialized)
}

// bindFlags binds viper keys to flags of cmd
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig loads the configuration and applies the logging settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := configureLogging(cmd.ErrOrStderr(), cfg); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"version":   version,
		"commit":    commit,
		"buildTime": buildTime,
	}).Debug("cors-setup build information")

	return cfg, nil
}

// configureLogging sends logs to w so stdout only carries the report
func configureLogging(w io.Writer, cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logrus.SetOutput(w)
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}
	return nil
}
