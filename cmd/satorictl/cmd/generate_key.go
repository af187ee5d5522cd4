package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satori-nvr/satori/internal/storage/encryption"
)

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generate an X25519 key pair for archive encryption",
	Long: `Generate an X25519 key pair in PEM format. Give both keys to readers of
the archive; services that only write may be configured with just the public
key.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		publicPEM, privatePEM, err := encryption.GenerateKeyPair()
		if err != nil {
			return err
		}

		fmt.Print(publicPEM)
		fmt.Print(privatePEM)
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(generateKeyCmd)
}
