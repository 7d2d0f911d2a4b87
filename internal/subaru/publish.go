package subaru

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// publishSuffixes are the archive kinds accepted for upload: built packages
// and repository database archives.
var publishSuffixes = []string{
	".pkg.tar.zst",
	".pkg.tar.xz",
	".pkg.tar.gz",
	".db.tar.gz",
}

// S3Client wraps the S3 client for the repository bucket.
type S3Client struct {
	Client *s3.Client
	Bucket string
}

// NewS3Client initializes an S3 client from the SUBARU_S3_* settings.
func NewS3Client(s *Settings) (*S3Client, error) {
	if s.S3Endpoint == "" || s.S3Bucket == "" || s.S3AccessKey == "" || s.S3SecretKey == "" {
		return nil, fmt.Errorf("S3 settings missing in configuration (SUBARU_S3_ENDPOINT, SUBARU_S3_BUCKET, SUBARU_S3_ACCESS_KEY, SUBARU_S3_SECRET_KEY)")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: s.S3Endpoint}, nil
	})

	options := []func(*config.LoadOptions) error{
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.S3AccessKey, s.S3SecretKey, "")),
		config.WithRegion(s.S3Region),
	}

	if s.Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Client{Client: client, Bucket: s.S3Bucket}, nil
}

// ObjectExists reports whether key is already present in the bucket.
func (c *S3Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	paginator := s3.NewListObjectsV2Paginator(c.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.Bucket),
		Prefix: aws.String(key),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && *obj.Key == key {
				return true, nil
			}
		}
	}
	return false, nil
}

// UploadLocalFile uploads a file from disk to the bucket.
func (c *S3Client) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(key, ".zst"):
		contentType = "application/zstd"
	case strings.HasSuffix(key, ".xz"):
		contentType = "application/x-xz"
	case strings.HasSuffix(key, ".gz"):
		contentType = "application/gzip"
	}

	_, err = c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
	})
	return err
}

func hasPublishSuffix(name string) bool {
	for _, suffix := range publishSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// runPublish uploads local archives to the repository bucket under their
// base filenames. A file argument uploads that one archive; a directory
// argument uploads every package archive the bucket is missing, then the
// database archives.
func runPublish(ctx context.Context, s *Settings, path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if stat.IsDir() {
		return publishDir(ctx, s, path)
	}
	return publishFile(ctx, s, path, stat.Size())
}

// publishFile uploads a single archive. Overwriting an existing object
// needs an explicit yes.
func publishFile(ctx context.Context, s *Settings, archivePath string, size int64) error {
	if !hasPublishSuffix(archivePath) {
		return fmt.Errorf("%s does not look like a package or database archive (want one of %s)",
			archivePath, strings.Join(publishSuffixes, ", "))
	}

	client, err := NewS3Client(s)
	if err != nil {
		return err
	}

	key := filepath.Base(archivePath)
	exists, err := client.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check bucket for %s: %w", key, err)
	}
	if exists {
		colArrow.Print("-> ")
		colWarn.Printf("Object %s already exists in bucket %s.\n", key, s.S3Bucket)
		if !askToOverride(colWarn, "Overwrite it?") {
			cPrintln(colNote, "Publish aborted.")
			return nil
		}
	} else {
		if !askForConfirmation(colSuccess, "Upload %s (%s) to bucket %s?", key, humanReadableSize(size), s.S3Bucket) {
			cPrintln(colNote, "Publish aborted.")
			return nil
		}
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Uploading: %s\n", key)
	if err := client.UploadLocalFile(ctx, key, archivePath); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Published ")
	colNote.Printf("%s", key)
	colSuccess.Printf(" to %s.\n", s.S3Bucket)
	return nil
}

// publishDir uploads the archives in dir, skipping package archives the
// bucket already has. Database archives always re-upload, and only after
// every package: a database the bucket serves must never name a package
// the bucket is missing.
func publishDir(ctx context.Context, s *Settings, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var packages, databases []string
	for _, entry := range entries {
		if entry.IsDir() || !hasPublishSuffix(entry.Name()) {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".db.tar.gz") {
			databases = append(databases, entry.Name())
		} else {
			packages = append(packages, entry.Name())
		}
	}
	if len(packages) == 0 && len(databases) == 0 {
		return fmt.Errorf("no package or database archives in %s", dir)
	}

	client, err := NewS3Client(s)
	if err != nil {
		return err
	}

	var uploaded, skipped, failed int
	for _, key := range append(packages, databases...) {
		if !strings.HasSuffix(key, ".db.tar.gz") {
			exists, err := client.ObjectExists(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to check bucket for %s: %w", key, err)
			}
			if exists {
				cPrintf(colNote, "Skipping %s: already in bucket %s.\n", key, s.S3Bucket)
				skipped++
				continue
			}
		}

		info, err := os.Stat(filepath.Join(dir, key))
		if err != nil {
			return err
		}
		if !askForConfirmation(colSuccess, "Upload %s (%s) to bucket %s?", key, humanReadableSize(info.Size()), s.S3Bucket) {
			skipped++
			continue
		}

		colArrow.Print("-> ")
		colSuccess.Printf("Uploading: %s\n", key)
		if err := client.UploadLocalFile(ctx, key, filepath.Join(dir, key)); err != nil {
			fmt.Fprintln(os.Stderr,
				colArrow.Sprint("->"),
				colError.Sprintf("Error uploading archive"),
				colNote.Sprintf(" %s", key),
				fmt.Sprintf("%v", err),
			)
			failed++
			continue
		}
		uploaded++
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Published %d archive(s) to %s", uploaded, s.S3Bucket)
	if skipped > 0 {
		colSuccess.Printf(" (%d skipped)", skipped)
	}
	colSuccess.Printf(".\n")

	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, uploaded+failed)
	}
	return nil
}

func humanReadableSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
