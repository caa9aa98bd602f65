package files

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/internal/bytesize"
	"github.com/marmos91/gridstore/internal/cli/output"
	"github.com/marmos91/gridstore/pkg/bucket"
)

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show file details",
	Long: `Show the metadata of a stored file.

Examples:
  gridstore files info 5f3a9c2e1d4b6a7c8e9f0a1b`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	file, err := b.Stat(cmd.Context(), parseFileID(args[0]))
	if errors.Is(err, bucket.ErrFileNotFound) {
		return fmt.Errorf("no file with id %q", args[0])
	}
	if err != nil {
		return err
	}

	pairs := [][2]string{
		{"ID", renderFileID(file.ID)},
		{"Filename", file.Filename},
		{"Size", fmt.Sprintf("%s (%d bytes)", bytesize.ByteSize(file.Length), file.Length)},
		{"Chunk size", bytesize.ByteSize(file.ChunkSize).String()},
		{"Uploaded", file.UploadDate.Local().Format("2006-01-02 15:04:05 MST")},
	}
	if file.MD5 != "" {
		pairs = append(pairs, [2]string{"MD5", file.MD5})
	}
	if file.ContentType != "" {
		pairs = append(pairs, [2]string{"Content type", file.ContentType})
	}
	if len(file.Aliases) > 0 {
		pairs = append(pairs, [2]string{"Aliases", strings.Join(file.Aliases, ", ")})
	}

	return output.KeyValueTable(os.Stdout, pairs)
}
