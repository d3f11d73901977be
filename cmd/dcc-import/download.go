package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const ensemblBaseURL = "https://ftp.ensembl.org/pub"

// Releases used when --release is not given.
const (
	defaultGRCh37Release = 75
	defaultGRCh38Release = 112
)

// grch37GTFVersion is the annotation version of every GTF published on the
// GRCh37 archive after release 75.
const grch37GTFVersion = 87

// ensemblGTFURL returns the gene annotation GTF URL for an assembly and release.
// A release of zero selects the default release for the assembly.
func ensemblGTFURL(assembly string, release int) (string, error) {
	switch strings.ToUpper(assembly) {
	case "GRCH37":
		if release == 0 {
			release = defaultGRCh37Release
		}
		if release <= 75 {
			return fmt.Sprintf("%s/release-%d/gtf/homo_sapiens/Homo_sapiens.GRCh37.%d.gtf.gz",
				ensemblBaseURL, release, release), nil
		}
		return fmt.Sprintf("%s/grch37/release-%d/gtf/homo_sapiens/Homo_sapiens.GRCh37.%d.gtf.gz",
			ensemblBaseURL, release, grch37GTFVersion), nil
	case "GRCH38":
		if release == 0 {
			release = defaultGRCh38Release
		}
		if release < 76 {
			return "", fmt.Errorf("GRCh38 is not available before Ensembl release 76")
		}
		return fmt.Sprintf("%s/release-%d/gtf/homo_sapiens/Homo_sapiens.GRCh38.%d.gtf.gz",
			ensemblBaseURL, release, release), nil
	default:
		return "", fmt.Errorf("unsupported assembly %q (use GRCh37 or GRCh38)", assembly)
	}
}

func newDownloadCmd() *cobra.Command {
	var (
		release   int
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download an Ensembl gene annotation GTF",
		Long: `Download the Ensembl GTF for an assembly into ~/.dcc-import/<assembly>/.
The genes command uses the downloaded file when no input is given.`,
		Example: `  dcc-import download --assembly GRCh37
  dcc-import download --assembly GRCh38 --release 110
  dcc-import download --output /data/ensembl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assembly := viper.GetString("assembly")
			gtfURL, err := ensemblGTFURL(assembly, release)
			if err != nil {
				return err
			}

			destDir := defaultDataDir(assembly)
			if outputDir != "" {
				destDir = filepath.Join(outputDir, strings.ToLower(assembly))
			}
			if destDir == "" {
				return fmt.Errorf("cannot determine home directory, use --output")
			}
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", destDir, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Downloading Ensembl annotations for %s...\n", assembly)
			fmt.Fprintf(out, "Destination: %s\n\n", destDir)

			dest := filepath.Join(destDir, filepath.Base(gtfURL))
			if err := downloadFile(cmd.Context(), out, gtfURL, dest); err != nil {
				return fmt.Errorf("downloading GTF: %w", err)
			}

			fmt.Fprintf(out, "\nDownload complete!\n")
			fmt.Fprintf(out, "To import genes, run:\n")
			fmt.Fprintf(out, "  dcc-import genes --assembly %s\n", assembly)
			return nil
		},
	}

	cmd.Flags().IntVar(&release, "release", 0, "Ensembl release (default: 75 for GRCh37, 112 for GRCh38)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.dcc-import/)")

	return cmd
}

// downloadFile downloads url to destPath, reporting progress to out.
// An existing destination is left untouched.
func downloadFile(ctx context.Context, out io.Writer, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Fprintf(out, "  Downloading %s...\n", filepath.Base(destPath))

	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{out: out, total: resp.ContentLength, lastPrint: time.Now()}
	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Fprintf(out, "\n    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter prints download progress at most once per second.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// findGTF returns the newest downloaded Ensembl GTF for an assembly.
func findGTF(assembly string) (string, bool) {
	dir := defaultDataDir(assembly)
	if dir == "" {
		return "", false
	}
	pattern := fmt.Sprintf("Homo_sapiens.%s.*.gtf.gz", canonicalAssembly(assembly))
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	// Glob sorts lexically; the last match has the highest release of equal width.
	return matches[len(matches)-1], true
}

func canonicalAssembly(assembly string) string {
	switch strings.ToUpper(assembly) {
	case "GRCH37":
		return "GRCh37"
	case "GRCH38":
		return "GRCh38"
	}
	return assembly
}
