package files

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/pkg/bucket"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id|filename>",
	Short: "Download a file",
	Long: `Download a file from the bucket.

The argument is looked up as a file id first, then as a filename. When
several files share the name, the most recently uploaded one is returned.
The download is written to the stored filename unless --output says
otherwise; "-" writes to stdout.

Examples:
  # Download by id
  gridstore files get 5f3a9c2e1d4b6a7c8e9f0a1b

  # Download by name to stdout
  gridstore files get report.pdf --output -`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "Output path (default: stored filename, \"-\" for stdout)")
}

func runGet(cmd *cobra.Command, args []string) error {
	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	ds, err := b.OpenDownloadStream(ctx, parseFileID(args[0]))
	if errors.Is(err, bucket.ErrFileNotFound) {
		ds, err = b.OpenDownloadStreamByName(ctx, args[0])
	}
	if errors.Is(err, bucket.ErrFileNotFound) {
		return fmt.Errorf("no file with id or name %q", args[0])
	}
	if err != nil {
		return err
	}
	defer ds.Close()

	file := ds.File()

	var dst io.Writer
	outPath := getOutput
	if outPath == "" {
		outPath = file.Filename
	}
	if outPath == "" || outPath == "-" {
		dst = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer f.Close()
		dst = f
	}

	written, err := io.Copy(dst, ds)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if dst != os.Stdout {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", written, outPath)
	}
	return nil
}
