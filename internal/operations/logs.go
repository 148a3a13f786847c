// Package operations implements the log-file reading used by the service
// commands. The supervisor only writes logs; reading and following them is
// a presentation concern handled here.
package operations

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"

	"cbhands/internal/errors"
	"cbhands/internal/logger"
)

// TailFile returns the last n lines of a log file.
func TailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithDetails(errors.ErrFileRead, "no log file for service", path)
		}
		return nil, errors.Wrap(errors.ErrFileRead, "failed to open log file", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read log file", err)
	}
	return lines, nil
}

// FollowFile writes the last n lines of the file to out, then watches the
// file for appends and streams new content until ctx is cancelled.
func FollowFile(ctx context.Context, path string, n int, out io.Writer) error {
	lines, err := TailFile(path, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := io.WriteString(out, line+"\n"); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrFileRead, "failed to open log file", err)
	}
	defer f.Close()
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(errors.ErrFileRead, "failed to seek log file", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrFileRead, "failed to create file watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return errors.Wrap(errors.ErrFileRead, "failed to watch log file", err)
	}

	reader := bufio.NewReader(f)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				if err := drain(reader, out); err != nil {
					return err
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.WithField("path", path).Warn("Log file rotated away, stopping follow")
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Log watcher error")
		}
	}
}

func drain(reader *bufio.Reader, out io.Writer) error {
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(out, strings.TrimSuffix(line, "\n")+"\n"); werr != nil {
				return werr
			}
		}
		if err != nil {
			return nil
		}
	}
}
