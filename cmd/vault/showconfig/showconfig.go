package showconfig

import (
	"os"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	Run:   run,
}

func run(c *cobra.Command, args []string) {
	cfg, err := ledger.LoadConfig()
	if err != nil {
		klog.Exitf("failed to load config: %s", err)
	}

	out, err := cfg.Marshal()
	if err != nil {
		klog.Exitf("failed to encode config: %s", err)
	}
	_, _ = os.Stdout.Write(out)
}
