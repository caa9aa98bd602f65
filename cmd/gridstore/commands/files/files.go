// Package files implements the "gridstore files" subcommands for working
// with stored objects directly against the configured document store.
package files

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/config"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Cmd is the parent "files" command.
var Cmd = &cobra.Command{
	Use:   "files",
	Short: "Manage stored files",
	Long: `Upload, download, list and delete files in the configured bucket.

These commands talk to the document store directly and do not require a
running gridstore server.`,
}

func init() {
	Cmd.AddCommand(putCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(lsCmd)
	Cmd.AddCommand(infoCmd)
	Cmd.AddCommand(rmCmd)
	Cmd.AddCommand(dropCmd)
}

// openBucket loads configuration, opens the document store and returns a
// bucket handle. The caller owns the store and must Close it.
func openBucket(cmd *cobra.Command) (docstore.Store, *bucket.Bucket, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return nil, nil, err
	}

	// Keep command output clean: only warnings and errors, on stderr.
	if err := logger.Init(logger.Config{
		Level:  "WARN",
		Format: cfg.Logging.Format,
		Output: "stderr",
	}); err != nil {
		return nil, nil, err
	}

	store, err := config.OpenStore(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	b, err := bucket.New(store, cfg.Bucket.Name,
		bucket.WithChunkSize(cfg.Bucket.ChunkSize.Int32()))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return store, b, nil
}

// parseFileID converts a command argument into a file id: a 24-char hex
// string becomes an ObjectID, anything else stays a plain string.
func parseFileID(s string) any {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

// renderFileID formats a file id for display.
func renderFileID(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", id)
}
