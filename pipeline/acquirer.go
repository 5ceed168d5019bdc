package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	audioFormat    = "bestaudio/best"
	outputTemplate = "%(id)s.%(ext)s"
)

// YtDlpFetcher downloads media with the yt-dlp CLI. The file is named after
// the resource id, so the same URL always lands on the same name.
type YtDlpFetcher struct {
	BinPath     string
	CookiesPath string
	ProxyURL    string
	runner      CommandRunner
}

func NewYtDlpFetcher(binPath string, runner CommandRunner) *YtDlpFetcher {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &YtDlpFetcher{BinPath: binPath, runner: runner}
}

func (f *YtDlpFetcher) Fetch(ctx context.Context, url, destDir string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", newStageError(StageAcquisition, "video URL is required", nil)
	}
	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		return "", newStageError(StageAcquisition, fmt.Sprintf("destination directory %s is not usable", destDir), err)
	}

	args := f.buildArgs(url, destDir)
	result, err := f.runner.Run(ctx, f.BinPath, args...)
	if err != nil {
		stageErr := newStageError(StageAcquisition, fmt.Sprintf("yt-dlp could not fetch %s: %s", url, tail(result.Stderr, 512)), err)
		stageErr.Command = append([]string{f.BinPath}, args...)
		return "", stageErr
	}

	path, err := resolveDownloadedPath(result.Stdout, destDir)
	if err != nil {
		return "", newStageError(StageAcquisition, fmt.Sprintf("no media downloaded for %s", url), err)
	}

	return path, nil
}

func (f *YtDlpFetcher) buildArgs(url, destDir string) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"--restrict-filenames",
		"-f", audioFormat,
		"-P", destDir,
		"-o", outputTemplate,
		"--print", "after_move:filepath",
	}
	if strings.TrimSpace(f.CookiesPath) != "" {
		args = append(args, "--cookies", strings.TrimSpace(f.CookiesPath))
	}
	if strings.TrimSpace(f.ProxyURL) != "" {
		args = append(args, "--proxy", strings.TrimSpace(f.ProxyURL))
	}
	return append(args, url)
}

// resolveDownloadedPath picks the file yt-dlp reported, or the single file it
// left in destDir when nothing was printed, and checks it is a non-empty file
// inside destDir.
func resolveDownloadedPath(stdout, destDir string) (string, error) {
	var path string
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			path = line
			break
		}
	}

	if path == "" {
		entries, err := os.ReadDir(destDir)
		if err != nil {
			return "", err
		}
		var files []string
		for _, entry := range entries {
			if !entry.IsDir() {
				files = append(files, entry.Name())
			}
		}
		if len(files) != 1 {
			return "", fmt.Errorf("expected exactly one downloaded file in %s, found %d", destDir, len(files))
		}
		path = filepath.Join(destDir, files[0])
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(destDir, path)
	}
	if !withinDir(path, destDir) {
		return "", fmt.Errorf("downloaded file %s is outside %s", path, destDir)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("downloaded file %s is empty", path)
	}

	return path, nil
}

func withinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
