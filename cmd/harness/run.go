package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/conduitedeprojet/testrunner/internal/playground"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/suite"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a program and its tests locally",
		Long:  "Run a program and its tests locally. Without --code and --tests the playground defaults are used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			codeFile, _ := cmd.Flags().GetString("code")
			testsFile, _ := cmd.Flags().GetString("tests")
			asJSON, _ := cmd.Flags().GetBool("json")

			req, err := readRequest(codeFile, testsFile)
			if err != nil {
				return err
			}

			pool := newPool(cfg)
			defer pool.Close()

			res, err := pool.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}

			resp := res.Response()
			if asJSON {
				data, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				printResponse(cmd.OutOrStdout(), resp)
			}
			return exitFor(resp)
		},
	}
	cmd.Flags().String("code", "", "Program file")
	cmd.Flags().String("tests", "", "Tests file")
	cmd.Flags().Bool("json", false, "Print the raw response")
	return cmd
}

// readRequest loads a request from files. Missing files fall back to the
// playground defaults, one field at a time.
func readRequest(codeFile, testsFile string) (sandbox.Request, error) {
	req := playground.Request()
	if codeFile != "" {
		code, err := suite.ReadSource(codeFile)
		if err != nil {
			return sandbox.Request{}, err
		}
		req.Code = code
	}
	if testsFile != "" {
		tests, err := suite.ReadSource(testsFile)
		if err != nil {
			return sandbox.Request{}, err
		}
		req.Tests = tests
	}
	return req, nil
}

// exitFor maps a response to the process exit status: 1 for failed tests,
// 2 when the program did not complete.
func exitFor(resp types.RunResponse) error {
	switch {
	case !resp.Success:
		return exitError{code: 2}
	case resp.FailedCount != nil && *resp.FailedCount > 0:
		return exitError{code: 1}
	}
	return nil
}
