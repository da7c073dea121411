// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package reporting

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.chromium.org/dutconsole/errors"
)

const (
	// FailedFilename is the name of the append-only file under the output
	// directory that records the ids of tests that did not pass.
	FailedFilename = "failed_numbers.txt"

	runHeaderPrefix = "# Test run at "
	runTimeLayout   = "2006-01-02 15:04:05"
)

// AppendFailed appends a block recording ids as the tests that did not pass
// in the run that finished at ts. Earlier blocks are never modified. dir is
// created if needed. It returns the path of the file, or an empty string if
// ids is empty and nothing was written.
func AppendFailed(dir string, ids []int, ts time.Time) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n\n%s%s\n", runHeaderPrefix, ts.Format(runTimeLayout))
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d\n", id)
	}

	path := filepath.Join(dir, FailedFilename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	// Write the whole block at once so concurrent runs do not interleave lines.
	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %s", path)
	}
	return path, nil
}

// FailedRun is a block of a file written by AppendFailed.
type FailedRun struct {
	// Time is the time recorded in the block header, in local time with
	// second precision.
	Time time.Time
	IDs  []int
}

// ReadFailedRuns parses the file at path written by AppendFailed and returns
// its blocks in file order.
func ReadFailedRuns(path string) ([]*FailedRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var runs []*FailedRun
	sc := bufio.NewScanner(f)
	for lineno := 1; sc.Scan(); lineno++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, runHeaderPrefix) {
			ts, err := time.ParseInLocation(runTimeLayout, strings.TrimPrefix(line, runHeaderPrefix), time.Local)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: bad run header", path, lineno)
			}
			runs = append(runs, &FailedRun{Time: ts})
			continue
		}
		if len(runs) == 0 {
			return nil, errors.Errorf("%s:%d: test id before first run header", path, lineno)
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad test id", path, lineno)
		}
		cur := runs[len(runs)-1]
		cur.IDs = append(cur.IDs, id)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return runs, nil
}
