package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/files"
)

func main() {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "genmasterkey",
		Short: "Write a new 32-byte hex master key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := files.WriteMasterKey(out, crypto.GenerateMasterKey(), force); err != nil {
				if errors.Is(err, files.ErrMasterKeyExists) {
					return fmt.Errorf("%s already exists. Refusing to overwrite (use --force)", out)
				}
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Master key written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "master.key", "key file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
