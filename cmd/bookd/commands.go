package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MarkoPoloResearchLab/bookledger/internal/ledgerio"
	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withService runs fn against a freshly opened service and closes everything afterwards.
func withService(cmd *cobra.Command, cfg *runtimeConfig, fn func(ctx context.Context, service *book.Service) error) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	service, cleanup, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil {
			logger.Warn("database close error", zap.Error(closeErr))
		}
	}()
	return fn(ctx, service)
}

func matchIDFlag(cmd *cobra.Command) (book.MatchID, error) {
	raw, err := cmd.Flags().GetString(flagMatch)
	if err != nil {
		return book.MatchID{}, err
	}
	return book.NewMatchID(raw)
}

func newImportCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append entries to a match from a CSV file",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := matchIDFlag(cmd)
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer file.Close()
			rows, err := ledgerio.ParseCSV(file)
			if err != nil {
				return err
			}
			return withService(cmd, cfg, func(ctx context.Context, service *book.Service) error {
				entries, err := service.ImportEntries(ctx, matchID, rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", len(entries), matchID)
				return nil
			})
		},
	}
	cmd.Flags().String(flagMatch, "", "match id (required)")
	_ = cmd.MarkFlagRequired(flagMatch)
	return cmd
}

func newExportCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the entries of a match",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := matchIDFlag(cmd)
			if err != nil {
				return err
			}
			rawFormat, _ := cmd.Flags().GetString(flagFormat)
			format, err := ledgerio.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			outPath, _ := cmd.Flags().GetString(flagOut)
			return withService(cmd, cfg, func(ctx context.Context, service *book.Service) error {
				match, err := service.GetMatch(ctx, matchID)
				if err != nil {
					return err
				}
				entries, err := service.ListMatchEntries(ctx, matchID)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), outPath, func(writer io.Writer) error {
					return ledgerio.Export(writer, format, match, entries)
				})
			})
		},
	}
	cmd.Flags().String(flagMatch, "", "match id (required)")
	cmd.Flags().String(flagFormat, string(ledgerio.FormatCSV), "csv, excel or xlsx")
	cmd.Flags().String(flagOut, stdoutPath, "output file, - for stdout")
	_ = cmd.MarkFlagRequired(flagMatch)
	return cmd
}

func newSettleCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settle a match for the winning side",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := matchIDFlag(cmd)
			if err != nil {
				return err
			}
			rawSide, _ := cmd.Flags().GetString(flagSide)
			side, err := book.ParseSide(rawSide)
			if err != nil {
				return err
			}
			return withService(cmd, cfg, func(ctx context.Context, service *book.Service) error {
				settlement, err := service.SettleMatch(ctx, matchID, side)
				if err != nil {
					return err
				}
				return printSettlement(cmd.OutOrStdout(), settlement)
			})
		},
	}
	cmd.Flags().String(flagMatch, "", "match id (required)")
	cmd.Flags().String(flagSide, "", "winning side, A or B (required)")
	_ = cmd.MarkFlagRequired(flagMatch)
	_ = cmd.MarkFlagRequired(flagSide)
	return cmd
}

func newSummaryCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals, break-even odds, profit and loss, and risk for a match",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := matchIDFlag(cmd)
			if err != nil {
				return err
			}
			return withService(cmd, cfg, func(ctx context.Context, service *book.Service) error {
				summary, err := service.Summary(ctx, matchID)
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().String(flagMatch, "", "match id (required)")
	_ = cmd.MarkFlagRequired(flagMatch)
	return cmd
}

func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == stdoutPath {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
