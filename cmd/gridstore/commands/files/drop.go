package files

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/internal/cli/prompt"
)

var dropForce bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the entire bucket",
	Long: `Remove the bucket's files and chunks collections and everything in them.

This is irreversible.

Examples:
  gridstore files drop
  gridstore files drop --force`,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "Skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ok, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Drop bucket %q and delete every file in it?", b.Name()), dropForce)
	if err != nil {
		if prompt.IsAborted(err) {
			cmd.Println("Cancelled.")
			return nil
		}
		return err
	}
	if !ok {
		cmd.Println("Cancelled.")
		return nil
	}

	if err := b.Drop(cmd.Context()); err != nil {
		return err
	}

	cmd.Printf("Dropped bucket %q\n", b.Name())
	return nil
}
