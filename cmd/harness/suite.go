package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduitedeprojet/testrunner/internal/suite"
)

func suiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite <pattern>...",
		Short: "Run suite files (TOML or YAML) and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			watch, _ := cmd.Flags().GetBool("watch")

			paths, err := suite.Discover(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no suite files match %v", args)
			}

			pool := newPool(cfg)
			defer pool.Close()

			runAll := func() (*suite.Report, []string, error) {
				report := &suite.Report{}
				var files []string
				for _, path := range paths {
					s, err := suite.Load(path)
					if err != nil {
						return nil, nil, err
					}
					files = append(files, s.Files()...)
					suite.Run(cmd.Context(), pool, s, report)
				}
				return report, files, nil
			}

			report, files, err := runAll()
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)

			if !watch {
				if report.Failed() > 0 {
					return exitError{code: 1}
				}
				return nil
			}

			return suite.Watch(cmd.Context(), files, 200*time.Millisecond, func(changed []string) {
				dimStyle.Fprintf(cmd.OutOrStdout(), "\n%d file(s) changed\n", len(changed))
				report, _, err := runAll()
				if err != nil {
					failStyle.Fprintln(cmd.ErrOrStderr(), err)
					return
				}
				printReport(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().Bool("watch", false, "Re-run when a suite or source file changes")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a program and its tests whenever either file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			codeFile, _ := cmd.Flags().GetString("code")
			testsFile, _ := cmd.Flags().GetString("tests")

			pool := newPool(cfg)
			defer pool.Close()

			rerun := func() {
				req, err := readRequest(codeFile, testsFile)
				if err != nil {
					failStyle.Fprintln(cmd.ErrOrStderr(), err)
					return
				}
				res, err := pool.Execute(cmd.Context(), req)
				if err != nil {
					failStyle.Fprintln(cmd.ErrOrStderr(), err)
					return
				}
				printResponse(cmd.OutOrStdout(), res.Response())
			}

			rerun()
			return suite.Watch(cmd.Context(), []string{codeFile, testsFile}, 200*time.Millisecond, func([]string) {
				dimStyle.Fprintln(cmd.OutOrStdout(), "\n---")
				rerun()
			})
		},
	}
	cmd.Flags().String("code", "", "Program file")
	cmd.Flags().String("tests", "", "Tests file")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("tests")
	return cmd
}
