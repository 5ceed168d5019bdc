package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func TestYtDlpFetcherReturnsPrintedPath(t *testing.T) {
	dir := t.TempDir()

	var gotName string
	var gotArgs []string
	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
			gotName = name
			gotArgs = append([]string{}, args...)
			path := filepath.Join(argValue(args, "-P"), "dQw4w9WgXcQ.webm")
			mustWriteFile(t, path, "media bytes")
			return CommandResult{Stdout: path + "\n"}, nil
		},
	}

	fetcher := NewYtDlpFetcher("yt-dlp-custom", runner)
	path, err := fetcher.Fetch(context.Background(), sampleURL, dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dQw4w9WgXcQ.webm"), path)
	assert.Equal(t, "yt-dlp-custom", gotName)
	assert.Equal(t, "bestaudio/best", argValue(gotArgs, "-f"))
	assert.Equal(t, dir, argValue(gotArgs, "-P"))
	assert.Equal(t, "%(id)s.%(ext)s", argValue(gotArgs, "-o"))
	assert.Contains(t, gotArgs, "--no-playlist")
	assert.NotContains(t, gotArgs, "--cookies")
	assert.Equal(t, sampleURL, gotArgs[len(gotArgs)-1])
}

func TestYtDlpFetcherFallsBackToSingleFile(t *testing.T) {
	dir := t.TempDir()
	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
			mustWriteFile(t, filepath.Join(dir, "abc.m4a"), "media")
			return CommandResult{}, nil
		},
	}

	path, err := NewYtDlpFetcher("", runner).Fetch(context.Background(), sampleURL, dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.m4a"), path)
}

func TestYtDlpFetcherFailures(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		runner func(dir string) *MockCommandRunner
		expect string
	}{
		{
			name: "tool exits non-zero",
			url:  sampleURL,
			runner: func(dir string) *MockCommandRunner {
				return &MockCommandRunner{RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
					return CommandResult{Stderr: "ERROR: Video unavailable", ExitCode: 1}, errors.New("exit status 1")
				}}
			},
			expect: "Video unavailable",
		},
		{
			name: "empty url",
			url:  "  ",
			runner: func(dir string) *MockCommandRunner {
				return &MockCommandRunner{RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
					t.Fatal("runner must not be called for an empty URL")
					return CommandResult{}, nil
				}}
			},
			expect: "video URL is required",
		},
		{
			name: "file outside dir",
			url:  sampleURL,
			runner: func(dir string) *MockCommandRunner {
				return &MockCommandRunner{RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
					outside := filepath.Join(filepath.Dir(dir), "escaped.webm")
					mustWriteFile(t, outside, "media")
					return CommandResult{Stdout: outside}, nil
				}}
			},
			expect: "outside",
		},
		{
			name: "empty file",
			url:  sampleURL,
			runner: func(dir string) *MockCommandRunner {
				return &MockCommandRunner{RunFunc: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
					path := filepath.Join(dir, "id.webm")
					mustWriteFile(t, path, "")
					return CommandResult{Stdout: path}, nil
				}}
			},
			expect: "empty",
		},
		{
			name: "nothing downloaded",
			url:  sampleURL,
			runner: func(dir string) *MockCommandRunner {
				return &MockCommandRunner{}
			},
			expect: "found 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "job")
			require.NoError(t, os.MkdirAll(dir, 0o755))

			_, err := NewYtDlpFetcher("yt-dlp", tt.runner(dir)).Fetch(context.Background(), tt.url, dir)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAcquisition)
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}

func TestYtDlpFetcherMissingDestDir(t *testing.T) {
	_, err := NewYtDlpFetcher("yt-dlp", &MockCommandRunner{}).Fetch(context.Background(), sampleURL, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrAcquisition)
}

func TestYtDlpFetcherPassesCookiesAndProxy(t *testing.T) {
	fetcher := NewYtDlpFetcher("yt-dlp", nil)
	fetcher.CookiesPath = "/secrets/cookies.txt"
	fetcher.ProxyURL = "socks5://127.0.0.1:1080"

	args := fetcher.buildArgs(sampleURL, "/tmp/job")

	assert.Equal(t, "/secrets/cookies.txt", argValue(args, "--cookies"))
	assert.Equal(t, "socks5://127.0.0.1:1080", argValue(args, "--proxy"))
	assert.Equal(t, sampleURL, args[len(args)-1])
}

func TestWithinDir(t *testing.T) {
	assert.True(t, withinDir("/tmp/job/a.webm", "/tmp/job"))
	assert.True(t, withinDir("/tmp/job/sub/a.webm", "/tmp/job"))
	assert.False(t, withinDir("/tmp/job", "/tmp/job"))
	assert.False(t, withinDir("/tmp/other/a.webm", "/tmp/job"))
	assert.False(t, withinDir("/tmp/job/../a.webm", "/tmp/job"))
	assert.True(t, withinDir("/tmp/job/..a.webm", "/tmp/job"))
}
