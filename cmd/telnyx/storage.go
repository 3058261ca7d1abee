package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
	"github.com/telnyx/telnyx-cli/storage"
)

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage cloud storage buckets and objects",
		Long: `Manage Telnyx cloud storage, an S3-compatible object store.

Requests are signed with the profile's API key.`,
	}

	bucketCmd := &cobra.Command{Use: "bucket", Short: "Manage buckets"}
	bucketCmd.AddCommand(newBucketListCmd(), newBucketCreateCmd(), newBucketDeleteCmd())

	objectCmd := &cobra.Command{Use: "object", Aliases: []string{"obj"}, Short: "Manage objects"}
	objectCmd.AddCommand(newObjectListCmd(), newObjectPutCmd(), newObjectGetCmd(), newObjectDeleteCmd())

	cmd.AddCommand(bucketCmd, objectCmd, newPresignCmd())
	return cmd
}

// formatBytes renders a size with a binary unit and one decimal.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	v := float64(n) / unit
	i := 0
	for v >= unit && i < len(units)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}

var bucketColumns = output.Columns(
	"name", "NAME",
	"created", "CREATED",
)

func newBucketListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List buckets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching buckets...")
			buckets, err := client.ListBuckets(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]output.Record, 0, len(buckets))
			for _, b := range buckets {
				created := "-"
				if !b.CreatedAt.IsZero() {
					created = b.CreatedAt.Local().Format("2006-01-02 15:04:05")
				}
				records = append(records, output.NewRecord("name", b.Name, "created", created))
			}
			if buckets == nil {
				buckets = []storage.Bucket{}
			}
			if err := a.render(records, bucketColumns, buckets); err != nil {
				return err
			}
			if a.tableOnly() && len(buckets) > 0 {
				a.linef("")
				a.linef("%d bucket(s)", len(buckets))
			}
			return nil
		},
	}
}

func newBucketCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <bucket>",
		Short: "Create a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]
			if err := api.ValidateBucketName(name); err != nil {
				return err
			}
			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Creating bucket %q...", name)
			if err := client.CreateBucket(cmd.Context(), name); err != nil {
				return err
			}
			a.ui.Success("Bucket %q created", name)
			return nil
		},
	}
}

func newBucketDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <bucket>",
		Short: "Delete an empty bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]
			if err := api.ValidateBucketName(name); err != nil {
				return err
			}

			if d.dryRun {
				a.ui.DryRun("Would delete bucket %q", name)
				return nil
			}
			if err := d.confirm(a, fmt.Sprintf("Delete bucket %q? This cannot be undone", name)); err != nil {
				return err
			}

			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			a.ui.Info("Deleting bucket %q...", name)
			if err := client.DeleteBucket(cmd.Context(), name); err != nil {
				return err
			}
			a.ui.Success("Bucket %q deleted", name)
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}

var objectColumns = output.Columns(
	"key", "KEY",
	"size", "SIZE",
	"modified", "MODIFIED",
)

func newObjectListCmd() *cobra.Command {
	var (
		prefix string
		limit  int32
	)

	cmd := &cobra.Command{
		Use:     "list <bucket>",
		Aliases: []string{"ls"},
		Short:   "List objects in a bucket",
		Long: `List objects in a bucket.

Examples:
  telnyx storage object list my-bucket
  telnyx storage object list my-bucket --prefix images/ --limit 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			bucket := args[0]
			if err := api.ValidateBucketName(bucket); err != nil {
				return err
			}
			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Listing objects in %q...", bucket)
			res, err := client.ListObjects(cmd.Context(), bucket, prefix, limit)
			if err != nil {
				return err
			}

			records := make([]output.Record, 0, len(res.Objects))
			for _, o := range res.Objects {
				modified := "-"
				if !o.LastModified.IsZero() {
					modified = o.LastModified.Local().Format("2006-01-02 15:04:05")
				}
				records = append(records, output.NewRecord(
					"key", o.Key,
					"size", formatBytes(o.Size),
					"modified", modified,
				))
			}
			if res.Objects == nil {
				res.Objects = []storage.Object{}
			}
			if err := a.render(records, objectColumns, res); err != nil {
				return err
			}
			if a.tableOnly() && len(records) > 0 {
				footer := fmt.Sprintf("%d object(s)", len(records))
				if res.Truncated {
					footer += " (truncated)"
				}
				a.linef("")
				a.linef("%s", footer)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys starting with this prefix")
	cmd.Flags().Int32VarP(&limit, "limit", "l", 100, "maximum number of objects to list")
	return cmd
}

func newObjectPutCmd() *cobra.Command {
	var (
		key         string
		contentType string
		public      bool
	)

	cmd := &cobra.Command{
		Use:   "put <bucket> <file>",
		Short: "Upload a file",
		Long: `Upload a file to a bucket.

Examples:
  telnyx storage object put my-bucket ./report.pdf
  telnyx storage object put my-bucket ./logo.png --key assets/logo.png --public`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			bucket, file := args[0], args[1]
			if err := api.ValidateBucketName(bucket); err != nil {
				return err
			}
			if key == "" {
				key = filepath.Base(file)
			}
			if contentType == "" {
				contentType = detectContentType(file)
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer func() { _ = f.Close() }()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", file, err)
			}

			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Uploading %q to %q (%s)...", file, bucket+"/"+key, formatBytes(info.Size()))
			opts := storage.PutOptions{ContentType: contentType, Public: public}
			if err := client.PutObject(cmd.Context(), bucket, key, f, opts); err != nil {
				return err
			}
			a.ui.Success("Uploaded to %s/%s", bucket, key)

			publicURL := ""
			if public {
				publicURL = client.ObjectURL(bucket, key)
			}
			if !a.tableOnly() {
				rec := output.NewRecord(
					"bucket", bucket,
					"key", key,
					"size", formatBytes(info.Size()),
					"content_type", contentType,
					"public_url", output.OrDash(publicURL),
				)
				raw := map[string]any{
					"bucket":       bucket,
					"key":          key,
					"size":         info.Size(),
					"content_type": contentType,
				}
				if publicURL != "" {
					raw["public_url"] = publicURL
				}
				return a.renderDetail(rec, uploadColumns, raw)
			}
			if publicURL != "" {
				a.linef("Public URL: %s", publicURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default: file name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: from file extension)")
	cmd.Flags().BoolVar(&public, "public", false, "make the object publicly readable")
	return cmd
}

var uploadColumns = output.Columns(
	"key", "Key",
	"bucket", "Bucket",
	"size", "Size",
	"content_type", "Content type",
	"public_url", "Public URL",
)

func newObjectGetCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "get <bucket> <key>",
		Short: "Download an object",
		Long: `Download an object.

Examples:
  telnyx storage object get my-bucket report.pdf
  telnyx storage object get my-bucket assets/logo.png --dest ./logo.png
  telnyx storage object get my-bucket notes.txt --dest -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			bucket, key := args[0], args[1]
			if err := api.ValidateBucketName(bucket); err != nil {
				return err
			}
			if dest == "" {
				dest = filepath.Base(key)
			}

			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Downloading %s/%s...", bucket, key)
			body, err := client.GetObject(cmd.Context(), bucket, key)
			if err != nil {
				return err
			}
			defer func() { _ = body.Close() }()

			if dest == "-" {
				if _, err := io.Copy(a.out, body); err != nil {
					return fmt.Errorf("write object: %w", err)
				}
				return nil
			}

			n, err := writeFileAtomic(cmd.Context(), dest, body)
			if err != nil {
				return err
			}
			a.ui.Success("Downloaded to %s (%s)", dest, formatBytes(n))
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", `destination path, "-" for stdout (default: base name of key)`)
	return cmd
}

func newObjectDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <bucket> <key>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			bucket, key := args[0], args[1]
			if err := api.ValidateBucketName(bucket); err != nil {
				return err
			}

			if d.dryRun {
				a.ui.DryRun("Would delete %s/%s", bucket, key)
				return nil
			}
			if err := d.confirm(a, fmt.Sprintf("Delete %s/%s? This cannot be undone", bucket, key)); err != nil {
				return err
			}

			client, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.DeleteObject(cmd.Context(), bucket, key); err != nil {
				return err
			}
			a.ui.Success("Deleted %s/%s", bucket, key)
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}

type presignedURL struct {
	Token        string `json:"token"`
	PresignedURL string `json:"presigned_url"`
	ExpiresAt    string `json:"expires_at"`
}

func newPresignCmd() *cobra.Command {
	var ttl int

	cmd := &cobra.Command{
		Use:   "presign <bucket> <key>",
		Short: "Generate a presigned download URL",
		Long: `Generate a time-limited URL that downloads an object without credentials.

Examples:
  telnyx storage presign my-bucket report.pdf
  telnyx storage presign my-bucket report.pdf --ttl 3600`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			bucket, key := args[0], args[1]
			if err := api.ValidateBucketName(bucket); err != nil {
				return err
			}

			a.ui.Info("Generating presigned URL...")
			path := "/storage/buckets/" + url.PathEscape(bucket) + "/" + url.PathEscape(key) + "/presigned_url"
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), path, map[string]int{"TTL": ttl}, a.opts(), &body); err != nil {
				return err
			}

			var p presignedURL
			raw, err := decodeData(body, &p)
			if err != nil {
				return err
			}
			if strings.TrimSpace(p.PresignedURL) == "" {
				return fmt.Errorf("parse response: missing presigned_url")
			}

			if !a.tableOnly() {
				rec := output.NewRecord("presigned_url", p.PresignedURL, "expires_at", p.ExpiresAt)
				return a.renderDetail(rec, presignColumns, raw)
			}

			a.ui.Success("Presigned URL generated")
			a.linef("")
			a.linef("%s", p.PresignedURL)
			a.linef("")
			a.linef("Expires in: %d seconds", ttl)
			return nil
		},
	}

	cmd.Flags().IntVar(&ttl, "ttl", 300, "URL lifetime in seconds")
	return cmd
}

var presignColumns = output.Columns(
	"presigned_url", "URL",
	"expires_at", "Expires",
)
