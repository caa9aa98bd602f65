package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/internal/bytesize"
	"github.com/marmos91/gridstore/pkg/bucket"
)

var (
	putName        string
	putContentType string
	putChunkSize   string
)

var putCmd = &cobra.Command{
	Use:   "put <path>",
	Short: "Upload a file",
	Long: `Upload a local file to the bucket and print its id.

Reads from stdin when <path> is "-". The stored filename defaults to the
base name of the path; use --name to override it.

Examples:
  # Upload a file
  gridstore files put backup.tar.gz

  # Upload from stdin under an explicit name
  cat report.pdf | gridstore files put - --name report.pdf

  # Upload with a custom chunk size
  gridstore files put video.mp4 --chunk-size 1Mi`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVarP(&putName, "name", "n", "", "Stored filename (default: base name of path)")
	putCmd.Flags().StringVarP(&putContentType, "content-type", "t", "", "Content type (default: guessed from extension)")
	putCmd.Flags().StringVar(&putChunkSize, "chunk-size", "", "Chunk size for this file, e.g. 256Ki or 1Mi")
}

func runPut(cmd *cobra.Command, args []string) error {
	path := args[0]

	filename := putName
	if filename == "" {
		if path == "-" {
			return fmt.Errorf("--name is required when reading from stdin")
		}
		filename = filepath.Base(path)
	}

	var src *os.File
	if path == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	var opts []bucket.UploadOption

	contentType := putContentType
	if contentType == "" && path != "-" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType != "" {
		opts = append(opts, bucket.WithContentType(contentType))
	}

	if putChunkSize != "" {
		size, err := bytesize.Parse(putChunkSize)
		if err != nil {
			return fmt.Errorf("invalid chunk size %q: %w", putChunkSize, err)
		}
		opts = append(opts, bucket.WithUploadChunkSize(size.Int32()))
	}

	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := b.UploadFromStream(cmd.Context(), filename, src, opts...)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Println(renderFileID(id))
	return nil
}
