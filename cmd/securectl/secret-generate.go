package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayeshrk/securelogin/pkg/vault"
)

// secretGenerateCmd represents the secret > generate command
var secretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a key encryption secret",
	Long: `
Generate a key encryption secret

Use this command to generate a new random passphrase for KEY_ENC_SECRET. The
secret protects the signing keypair at rest; anything at least 16 characters
long works, this generates 32 bytes of randomness.

Example:

$ export KEY_ENC_SECRET="$(securectl secret generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		bytes, _ := vault.RandomBytes(32)
		fmt.Printf("%s", base64.StdEncoding.Strict().EncodeToString(bytes))
	},
}

func init() {
	secretCmd.AddCommand(secretGenerateCmd)
}
