// Package transcode shells out to ffmpeg and ffprobe to turn downloaded
// media into mp3 files, reporting encode progress parsed from ffmpeg stderr.
package transcode

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timemarkRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ParseTimemark extracts the elapsed seconds from one ffmpeg stderr line.
func ParseTimemark(line string) (float64, bool) {
	m := timemarkRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// Runner executes ffmpeg and ffprobe from configured binary paths.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// NewRunner returns a runner for the given binaries. A zero timeout means
// encodes run unbounded.
func NewRunner(ffmpegPath, ffprobePath string, timeout time.Duration) *Runner {
	return &Runner{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, timeout: timeout}
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

// Available reports whether the ffmpeg binary can be resolved.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.ffmpegPath)
	return err == nil
}

// ProbeDuration returns the media duration in seconds via ffprobe.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// BuildArgs returns the ffmpeg argument list for an mp3 encode.
func BuildArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-vn",
		"-ar", "44100",
		"-ac", "2",
		"-ab", "128k",
		out,
	}
}

// ToMP3 encodes in to out as mp3. onProgress receives the completed fraction
// in [0,1] as ffmpeg reports timemarks; pass nil to skip reporting. A
// non-positive totalDuration disables meaningful fractions but still drives
// callbacks to completion.
func (r *Runner) ToMP3(ctx context.Context, in, out string, totalDuration float64, onProgress func(frac float64)) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if totalDuration <= 0 {
		totalDuration = 1
	}

	cmd := exec.CommandContext(ctx, r.ffmpegPath, BuildArgs(in, out)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		elapsed, ok := ParseTimemark(scanner.Text())
		if !ok || onProgress == nil {
			continue
		}
		frac := elapsed / totalDuration
		if frac > 1 {
			frac = 1
		}
		onProgress(frac)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w", in, err)
	}
	return nil
}
