package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/guided-traffic/cors-setup/internal/config"
	"github.com/guided-traffic/cors-setup/internal/cors"
	"github.com/guided-traffic/cors-setup/internal/preview"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// DefaultS3FileName is the output of export-s3
const DefaultS3FileName = "cors_config.xml"

func newCheckCmd() *cobra.Command {
	var file, origin, method string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a preflight request would be allowed by the CORS rules",
		Long: `check evaluates a browser preflight request (origin + requested method)
against the generated rules, or against an existing CORS JSON file with --file.
It exits with a non-zero status when the request would be denied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rules, err := loadRules(afero.NewOsFs(), file, cfg)
			if err != nil {
				return err
			}

			return check(cmd.OutOrStdout(), rules, origin, strings.ToUpper(method))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CORS JSON file to check instead of the configured rules")
	cmd.Flags().StringVar(&origin, "origin", "", "request origin, e.g. http://localhost:5173")
	cmd.Flags().StringVar(&method, "method", "GET", "requested HTTP method")
	_ = cmd.MarkFlagRequired("origin")

	return cmd
}

func check(out io.Writer, rules cors.Configuration, origin, method string) error {
	rule := rules.Match(origin, method)
	if rule == nil {
		fmt.Fprintf(out, "denied: %s %s\n", method, origin)
		if rules.AllowsOrigin(origin) {
			return fmt.Errorf("method %s is not allowed for origin %s", method, origin)
		}
		return fmt.Errorf("origin %s is not allowed", origin)
	}

	fmt.Fprintf(out, "allowed: %s %s (methods %s, max age %ds)\n",
		method, origin, strings.Join(rule.Methods, ", "), rule.MaxAgeSeconds)
	return nil
}

func newExportS3Cmd() *cobra.Command {
	var file, output string

	cmd := &cobra.Command{
		Use:   "export-s3",
		Short: "Write the CORS rules as an S3 CORSConfiguration XML document",
		Long: `export-s3 converts the rules to the XML format used by S3 compatible
storage (PutBucketCors). OPTIONS is dropped because S3 answers preflight
requests implicitly. The document is only written locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			rules, err := loadRules(fs, file, cfg)
			if err != nil {
				return err
			}

			return exportS3(fs, cmd.OutOrStdout(), rules, output)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CORS JSON file to convert instead of the configured rules")
	cmd.Flags().StringVar(&output, "output", DefaultS3FileName, "path of the generated XML file")

	return cmd
}

func exportS3(fs afero.Fs, out io.Writer, rules cors.Configuration, output string) error {
	logger := logrus.WithField("component", "s3-export")

	s3Rules, skipped := cors.ToS3Rules(rules)
	if len(skipped) > 0 {
		logger.WithField("methods", skipped).Warn("Methods not supported by S3 CORS rules were dropped")
	}

	doc, err := cors.MarshalS3XML(s3Rules)
	if err != nil {
		return err
	}

	if err := cors.NewFileWriter(fs, logger).Write(output, doc); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Created %s\n", output)
	return err
}

func newServeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the CORS configuration locally behind its own rules",
		Long: `serve starts a local HTTP server that answers requests the way the bucket
would once the rules are applied. Point a front-end dev server at
http://<bind>/cors.json to verify the rules in a browser.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"preview.bind_address": "bind",
			}); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rules, err := loadRules(afero.NewOsFs(), file, cfg)
			if err != nil {
				return err
			}

			serialized, err := cors.Marshal(rules)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return preview.NewServer(cfg, rules, serialized).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CORS JSON file to serve instead of the configured rules")
	cmd.Flags().String("bind", config.DefaultPreviewBindAddress, "address of the preview server")

	return cmd
}

// loadRules reads rules from file, or builds them from the configuration when file is empty
func loadRules(fs afero.Fs, file string, cfg *config.Config) (cors.Configuration, error) {
	if file == "" {
		return cors.Build(cfg.Policy()), nil
	}
	return cors.ReadFile(fs, file)
}
