package files

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/internal/cli/prompt"
	"github.com/marmos91/gridstore/pkg/bucket"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a file",
	Long: `Delete a file and all of its chunks.

Examples:
  gridstore files rm 5f3a9c2e1d4b6a7c8e9f0a1b

  # Skip confirmation
  gridstore files rm 5f3a9c2e1d4b6a7c8e9f0a1b --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Skip confirmation prompt")
}

func runRm(cmd *cobra.Command, args []string) error {
	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	id := parseFileID(args[0])

	file, err := b.Stat(ctx, id)
	if errors.Is(err, bucket.ErrFileNotFound) {
		return fmt.Errorf("no file with id %q", args[0])
	}
	if err != nil {
		return err
	}

	ok, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Delete %q (%s)?", file.Filename, renderFileID(file.ID)), rmForce)
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

	if err := b.Delete(ctx, id); err != nil {
		return err
	}

	cmd.Printf("Deleted %s\n", renderFileID(id))
	return nil
}
