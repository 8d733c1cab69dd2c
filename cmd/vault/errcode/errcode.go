package errcode

import (
	"fmt"
	"strconv"

	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "error <code>",
	Short: "Name a vault custom program error code (decimal or 0x hex)",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

func run(c *cobra.Command, args []string) {
	name, err := lookup(args[0])
	if err != nil {
		klog.Exitf("%s", err)
	}
	fmt.Println(name)
}

func lookup(s string) (string, error) {
	code, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return "", fmt.Errorf("invalid error code %q: %w", s, err)
	}

	vaultErr, err := vault.ErrorFromCode(uint32(code))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d (0x%x) %s", vaultErr.Code, vaultErr.Code, vaultErr.Name), nil
}
