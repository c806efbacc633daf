package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"finance/internal/core"
)

func newMoneyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "money",
		Short: "Convert between BRL text and integer cents",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "format <cents>",
			Short: "Format cents as BRL",
			Long: "Format cents as BRL. A fractional cents value, as some payloads carry,\n" +
				"is truncated toward zero.",
			Example: "  finance money format -- -150   # R$ -1,50\n" +
				"  finance money format 150.9     # R$ 1,50",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if cents, err := strconv.ParseInt(args[0], 10, 64); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), core.FormatCentsToBRL(cents))
					return nil
				}
				cents, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("cents must be a number: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), core.FormatCentsToBRLFloat(cents))
				return nil
			},
		},
		&cobra.Command{
			Use:     "parse <text>",
			Short:   "Parse BRL text into integer cents",
			Example: "  finance money parse 'R$ 1.234,56'   # 123456",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), core.ParseBRLToCents(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:     "from-decimal <amount>",
			Short:   "Convert a major-unit decimal amount into integer cents",
			Example: "  finance money from-decimal 1234.567   # 123456",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cents, err := core.CentsFromJSONNumber(json.Number(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cents)
				return nil
			},
		},
		&cobra.Command{
			Use:     "to-decimal <cents>",
			Short:   "Convert integer cents into a major-unit decimal amount",
			Example: "  finance money to-decimal -- -150   # -1.50",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cents, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("cents must be an integer: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), core.DecimalFromCents(cents).StringFixed(2))
				return nil
			},
		},
		&cobra.Command{
			Use:   "sanitize <text>",
			Short: "Reduce money input to digits and one decimal comma",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), core.SanitizeInputMoney(args[0]))
				return nil
			},
		},
	)
	return cmd
}
