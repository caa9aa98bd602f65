package files

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/internal/bytesize"
	"github.com/marmos91/gridstore/internal/cli/output"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
)

var (
	lsOutput string
	lsName   string
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored files",
	Long: `List the files in the bucket, newest first.

Examples:
  # List all files
  gridstore files ls

  # List revisions of one name
  gridstore files ls --name report.pdf

  # Machine-readable output
  gridstore files ls --output json`,
	RunE: runLs,
}

func init() {
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", "table", "Output format (table|json|yaml)")
	lsCmd.Flags().StringVarP(&lsName, "name", "n", "", "Only list files with this name")
}

// fileRow is the JSON/YAML shape for a listed file.
type fileRow struct {
	ID          string `json:"id" yaml:"id"`
	Filename    string `json:"filename" yaml:"filename"`
	Length      int64  `json:"length" yaml:"length"`
	ChunkSize   int32  `json:"chunk_size" yaml:"chunk_size"`
	UploadDate  string `json:"upload_date" yaml:"upload_date"`
	MD5         string `json:"md5,omitempty" yaml:"md5,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

func runLs(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(lsOutput)
	if err != nil {
		return err
	}

	store, b, err := openBucket(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	var filter docstore.Filter
	if lsName != "" {
		filter = docstore.Filter{"filename": lsName}
	}

	cur, err := b.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var rows []fileRow
	for cur.Next(ctx) {
		var f bucket.File
		if err := cur.Decode(&f); err != nil {
			return err
		}
		rows = append(rows, fileRow{
			ID:          renderFileID(f.ID),
			Filename:    f.Filename,
			Length:      f.Length,
			ChunkSize:   f.ChunkSize,
			UploadDate:  f.UploadDate.Local().Format("2006-01-02 15:04:05"),
			MD5:         f.MD5,
			ContentType: f.ContentType,
		})
	}
	if err := cur.Err(); err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, rows)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, rows)
	}

	if len(rows) == 0 {
		cmd.Println("No files found.")
		return nil
	}

	table := output.NewTableData("ID", "FILENAME", "SIZE", "UPLOADED")
	for _, r := range rows {
		table.AddRow(r.ID, r.Filename, bytesize.ByteSize(r.Length).String(), r.UploadDate)
	}
	return output.PrintTable(os.Stdout, table)
}
