package pipeline

import (
	"fmt"
	"os/exec"
)

type DependencyReport struct {
	YtDlpFound      bool   `json:"yt_dlp_found"`
	YtDlpPath       string `json:"yt_dlp_path,omitempty"`
	FFmpegFound     bool   `json:"ffmpeg_found"`
	FFmpegPath      string `json:"ffmpeg_path,omitempty"`
	WhisperCppFound bool   `json:"whisper_cpp_found"`
	WhisperCppPath  string `json:"whisper_cpp_path,omitempty"`
}

// DependencyStatus looks up the external tools on PATH. An empty whisper.cpp
// name skips that check.
func DependencyStatus(ytDlpBin, ffmpegBin, whisperCppBin string) DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(ytDlpBin); err == nil {
		report.YtDlpFound = true
		report.YtDlpPath = path
	}
	if path, err := exec.LookPath(ffmpegBin); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	if whisperCppBin != "" {
		if path, err := exec.LookPath(whisperCppBin); err == nil {
			report.WhisperCppFound = true
			report.WhisperCppPath = path
		}
	}
	return report
}

func (r DependencyReport) Check(needWhisperCpp bool) error {
	if !r.YtDlpFound {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	if !r.FFmpegFound {
		return fmt.Errorf("missing dependency: ffmpeg is not installed or not on PATH")
	}
	if needWhisperCpp && !r.WhisperCppFound {
		return fmt.Errorf("missing dependency: whisper.cpp is not installed or not on PATH")
	}
	return nil
}
