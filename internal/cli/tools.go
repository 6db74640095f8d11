// internal/cli/tools.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/routine-runner/internal/console"
)

const dumpWidth = 16

// NewDumpCommand prints the raw image as hex.
func NewDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <config.yaml>",
		Short: "Print the stored image as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, done, err := offline(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			var line []string
			addr := 0
			for hex := range st.Dump() {
				line = append(line, hex)
				if len(line) == dumpWidth {
					fmt.Fprintf(out, "%04X: %s\n", addr, strings.Join(line, " "))
					addr += dumpWidth
					line = line[:0]
				}
			}
			if len(line) > 0 {
				fmt.Fprintf(out, "%04X: %s\n", addr, strings.Join(line, " "))
			}
			return nil
		},
	}
}

// NewReadCommand prints the stored routines in console encoding.
func NewReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <config.yaml>",
		Short: "Print the stored routines",
		Long: `Print the stored routines in the console write encoding, so the
output can be replayed as a "w" command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, done, err := offline(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), console.EncodeRoutines(st))
			return err
		},
	}
}

// NewResetCommand erases the image. The next start formats it.
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <config.yaml>",
		Short: "Erase the stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, log, done, err := offline(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			st.FactoryReset()
			log.Info("image erased", "bytes", st.Capacity())
			return nil
		},
	}
}

// NewFormatCommand writes an empty header to the image.
func NewFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <config.yaml>",
		Short: "Erase the image and write an empty header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, log, done, err := offline(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			st.Initialize()
			log.Info("image formatted", "bytes", st.Capacity(), "max_routines", st.Limit())
			return nil
		},
	}
}
