package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum mismatch")
	ErrNoAsset       = errors.New("release has no build for this platform")
)

const (
	binaryName     = "mathsheet"
	checksumsAsset = "checksums.txt"
	maxAssetBytes  = 200 << 20
)

type UpdateInput struct {
	CurrentVersion string
	// TargetVersion pins a release tag; empty means the latest release.
	TargetVersion string
}

type UpdateProgress struct {
	Stage   string
	Message string
}

// Update downloads the release archive for this platform, checks it
// against the release's checksums.txt and swaps it in for the running
// executable.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if progress == nil {
		progress = func(UpdateProgress) {}
	}
	current := canonical(input.CurrentVersion)
	if !semver.IsValid(current) {
		return ErrDevBuild
	}

	progress(UpdateProgress{Stage: "check", Message: "Looking up release..."})
	rel, err := c.fetchRelease(ctx, input.TargetVersion)
	if err != nil {
		return err
	}
	if input.TargetVersion == "" && semver.Compare(canonical(rel.TagName), current) <= 0 {
		return ErrAlreadyLatest
	}

	name, err := assetNameFor(rel.TagName, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	archive, ok := rel.asset(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoAsset, name)
	}
	sums, ok := rel.asset(checksumsAsset)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoAsset, checksumsAsset)
	}

	progress(UpdateProgress{Stage: "download", Message: fmt.Sprintf("Downloading %s...", name)})
	var archiveData, sumsData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		archiveData, err = c.download(gctx, archive.URL)
		return err
	})
	g.Go(func() (err error) {
		sumsData, err = c.download(gctx, sums.URL)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("download %s: %w", rel.TagName, err)
	}

	progress(UpdateProgress{Stage: "verify", Message: "Verifying checksum..."})
	want, ok := parseChecksums(sumsData)[name]
	if !ok {
		return fmt.Errorf("%w: %s is not listed in %s", ErrChecksum, name, checksumsAsset)
	}
	if err := verifyChecksum(archiveData, want); err != nil {
		return err
	}

	progress(UpdateProgress{Stage: "extract", Message: "Extracting binary..."})
	bin, err := extractBinary(archiveData, name)
	if err != nil {
		return fmt.Errorf("extract binary: %w", err)
	}

	progress(UpdateProgress{Stage: "apply", Message: "Replacing executable..."})
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := replaceExecutable(target, bin); err != nil {
		return fmt.Errorf("replace executable: %w", err)
	}

	progress(UpdateProgress{Stage: "done", Message: fmt.Sprintf("Updated to %s", rel.TagName)})
	return nil
}

// assetNameFor returns the archive name the release pipeline publishes,
// e.g. mathsheet_1.4.0_linux_amd64.tar.gz.
func assetNameFor(tag, goos, goarch string) (string, error) {
	switch goarch {
	case "amd64", "arm64":
	default:
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}
	ext := ".tar.gz"
	switch goos {
	case "linux", "darwin":
	case "windows":
		ext = ".zip"
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
	version := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	return fmt.Sprintf("%s_%s_%s_%s%s", binaryName, version, goos, goarch, ext), nil
}

func (c *Checker) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", url, maxAssetBytes)
	}
	return data, nil
}

// parseChecksums reads sha256sum output. A leading '*' on the file name
// (binary mode) is ignored.
func parseChecksums(data []byte) map[string]string {
	sums := make(map[string]string)
	for line := range strings.Lines(string(data)) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		sums[strings.TrimPrefix(fields[1], "*")] = strings.ToLower(fields[0])
	}
	return sums
}

func verifyChecksum(data []byte, want string) error {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

// extractBinary pulls the executable out of a release archive: a .zip
// holding mathsheet.exe on Windows, a .tar.gz holding mathsheet elsewhere.
func extractBinary(data []byte, asset string) ([]byte, error) {
	if strings.HasSuffix(asset, ".zip") {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("open zip: %w", err)
		}
		f, err := zr.Open(binaryName + ".exe")
		if err != nil {
			return nil, fmt.Errorf("%s.exe not found in archive: %w", binaryName, err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxAssetBytes))
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()
	for tr := tar.NewReader(gz); ; {
		hdr, err := tr.Next()
		switch {
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%s not found in archive", binaryName)
		case err != nil:
			return nil, fmt.Errorf("read tar: %w", err)
		case hdr.Typeflag == tar.TypeReg && path.Base(hdr.Name) == binaryName:
			return io.ReadAll(io.LimitReader(tr, maxAssetBytes))
		}
	}
}

// replaceExecutable writes bin to a temporary file beside target and
// renames it over target with target's permission bits. Windows will not
// overwrite a running .exe, so there the old one is moved aside first.
func replaceExecutable(target string, bin []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".mathsheet-update-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.Write(bin)
	if err := errors.Join(werr, tmp.Sync(), tmp.Close()); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		old := target + ".old"
		_ = os.Remove(old)
		if err := os.Rename(target, old); err != nil {
			return err
		}
	}
	return os.Rename(tmp.Name(), target)
}
