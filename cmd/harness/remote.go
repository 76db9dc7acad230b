package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	natsapi "github.com/conduitedeprojet/testrunner/internal/api/nats"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/pkg/client"
)

func remoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Run a program and its tests on a testrunner server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			url, _ := cmd.Flags().GetString("url")
			overNATS, _ := cmd.Flags().GetBool("nats")
			compress, _ := cmd.Flags().GetBool("compress")
			codeFile, _ := cmd.Flags().GetString("code")
			testsFile, _ := cmd.Flags().GetString("tests")

			req, err := readRequest(codeFile, testsFile)
			if err != nil {
				return err
			}

			var (
				resp  types.RunResponse
				runID string
			)
			if overNATS {
				nc, err := nats.Connect(cfg.NATS.URL, nats.Name("testrunner-harness"), nats.Timeout(5*time.Second))
				if err != nil {
					return fmt.Errorf("failed to connect to NATS: %w", err)
				}
				defer nc.Close()

				resp, runID, err = natsapi.Request(cmd.Context(), nc, cfg.NATS.Subject,
					types.RunRequest{Code: &req.Code, Tests: &req.Tests}, compress)
				if err != nil {
					return err
				}
			} else {
				c := client.New(client.Config{BaseURL: url, Timeout: cfg.Sandbox.Timeout + 10*time.Second, Retries: 2})
				res, err := c.Run(cmd.Context(), req.Code, req.Tests)
				if err != nil && !errors.Is(err, client.ErrRejected) {
					return err
				}
				resp, runID = res.Response, res.RunID
			}

			if runID != "" {
				dimStyle.Fprintf(cmd.OutOrStdout(), "run %s\n", runID)
			}
			printResponse(cmd.OutOrStdout(), resp)
			return exitFor(resp)
		},
	}
	cmd.Flags().String("url", "http://localhost:8000", "Server base URL")
	cmd.Flags().Bool("nats", false, "Send the request over NATS (NATS_URL, NATS_SUBJECT)")
	cmd.Flags().Bool("compress", false, "Snappy-compress the NATS request")
	cmd.Flags().String("code", "", "Program file")
	cmd.Flags().String("tests", "", "Tests file")
	return cmd
}
