package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

type gitRawEntry struct {
	srcMode filemode.FileMode
	dstMode filemode.FileMode
	status  string // e.g. "M", "A", "D", "R100"
	path    string // destination path (or path for non-renames)
	oldPath string // source path for renames
}

// Each commit is prefixed by 0x1e (record separator) and its header fields are
// NUL-separated. The full message is NUL-terminated so the --raw -z output that
// follows can be split off reliably.
const gitLogFormat = "%x1e%H%x00%P%x00%cI%x00%an%x00%ae%x00%B%x00"

const gitLogHeaderFields = 7

func (r *HistoryReader) gitLogArgs() []string {
	args := []string{
		"-C", r.opts.RepoPath,
		"log",
		"--no-color",
		"--no-merges",
		"--reverse",
		"--root",
		"--pretty=format:" + gitLogFormat,
		"--raw", "-z",
	}

	switch r.opts.RenameDetect {
	case RenameDetectOff:
		args = append(args, "--no-renames")
	case RenameDetectSimple:
		args = append(args, "-M100%")
	case RenameDetectAggressive:
		// Match go-git's default threshold (60).
		args = append(args, "-M60%")
	}

	if r.opts.Since != nil {
		args = append(args, fmt.Sprintf("--since=@%d", r.opts.Since.Unix()))
	}
	if r.opts.Until != nil {
		args = append(args, fmt.Sprintf("--until=@%d", r.opts.Until.Unix()))
	}

	if !isHeadRef(r.opts.Branch) {
		args = append(args, strings.TrimSpace(r.opts.Branch))
	}
	return args
}

func (r *HistoryReader) readChangesGitCLI(ctx context.Context) ([]CommitChangeSet, error) {
	out, err := exec.CommandContext(ctx, "git", r.gitLogArgs()...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git log failed: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("git log failed: %w", err)
	}

	sets, processed, err := r.parseGitLog(out)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("history read", "backend", r.opts.Backend, "commits", processed, "changesets", len(sets))
	return sets, nil
}

// parseGitLog converts the raw output of `git log` into change sets.
func (r *HistoryReader) parseGitLog(out []byte) ([]CommitChangeSet, int, error) {
	records := bytes.Split(out, []byte{0x1e})
	results := make([]CommitChangeSet, 0, len(records))
	processed := 0

	for _, rec := range records {
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}

		fields := bytes.SplitN(rec, []byte{0x00}, gitLogHeaderFields)
		if len(fields) < gitLogHeaderFields {
			return nil, 0, fmt.Errorf("unexpected git log header format")
		}

		when, err := time.Parse(time.RFC3339, string(fields[2]))
		if err != nil {
			return nil, 0, fmt.Errorf("parse committer date: %w", err)
		}

		rawEntries, _, err := parseGitRawEntries(fields[6])
		if err != nil {
			return nil, 0, err
		}

		processed++
		if r.opts.OnProgress != nil {
			r.opts.OnProgress(processed)
		}

		changes := make([]FileChange, 0, len(rawEntries))
		for _, e := range rawEntries {
			if !e.srcMode.IsFile() && !e.dstMode.IsFile() {
				continue
			}
			fc := fileChangeFromRaw(e)
			if fc.EffectivePath() == "" || !r.filter.Match(fc.EffectivePath()) {
				continue
			}
			changes = append(changes, fc)
		}

		if len(changes) == 0 {
			continue
		}

		results = append(results, CommitChangeSet{
			Commit: CommitInfo{
				SHA:     string(fields[0]),
				Parents: strings.Fields(string(fields[1])),
				When:    when,
				Author:  AuthorInfo{Name: string(fields[3]), Email: string(fields[4])},
				Message: strings.TrimRight(string(fields[5]), "\n"),
			},
			Changes: changes,
		})
	}

	return results, processed, nil
}

func parseGitRawEntries(body []byte) ([]gitRawEntry, int, error) {
	i := 0
	for i < len(body) && (body[i] == '\n' || body[i] == '\r') {
		i++
	}

	entries := make([]gitRawEntry, 0, 16)

	for i < len(body) && body[i] == ':' {
		meta, ok := readUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing NUL)")
		}

		fields := strings.Fields(string(meta))
		if len(fields) < 5 {
			return nil, 0, fmt.Errorf("unexpected git --raw meta: %q", string(meta))
		}

		srcMode, err := parseGitFileMode(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			return nil, 0, err
		}
		dstMode, err := parseGitFileMode(fields[1])
		if err != nil {
			return nil, 0, err
		}

		status := fields[len(fields)-1]

		path1, ok := readStringUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing path)")
		}

		path := path1
		oldPath := ""
		if len(status) > 0 && (status[0] == 'R' || status[0] == 'C') {
			path2, ok := readStringUntilNUL(body, &i)
			if !ok {
				return nil, 0, fmt.Errorf("unexpected git --raw format (missing rename path)")
			}
			oldPath = path1
			path = path2
		}

		entries = append(entries, gitRawEntry{
			srcMode: srcMode,
			dstMode: dstMode,
			status:  status,
			path:    path,
			oldPath: oldPath,
		})

		for i < len(body) && (body[i] == '\n' || body[i] == '\r') {
			i++
		}
	}

	return entries, i, nil
}

func parseGitFileMode(s string) (filemode.FileMode, error) {
	if s == "" {
		return filemode.Empty, nil
	}
	// Modes are printed as octal (e.g. 100644, 120000, 160000, 000000).
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return filemode.Empty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return filemode.FileMode(v), nil
}

func fileChangeFromRaw(e gitRawEntry) FileChange {
	kind := kindFromGitStatus(e.status)
	switch kind {
	case ChangeKindAdded:
		return FileChange{NewPath: e.path, Kind: kind}
	case ChangeKindDeleted:
		return FileChange{OldPath: e.path, Kind: kind}
	case ChangeKindRenamed:
		return FileChange{OldPath: e.oldPath, NewPath: e.path, Kind: kind}
	default:
		return FileChange{OldPath: e.path, NewPath: e.path, Kind: kind}
	}
}

func kindFromGitStatus(status string) ChangeKind {
	if status == "" {
		return ChangeKindModified
	}
	switch status[0] {
	case 'A', 'C':
		return ChangeKindAdded
	case 'D':
		return ChangeKindDeleted
	case 'R':
		return ChangeKindRenamed
	default:
		return ChangeKindModified
	}
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}

func readStringUntilNUL(b []byte, i *int) (string, bool) {
	raw, ok := readUntilNUL(b, i)
	if !ok {
		return "", false
	}
	return string(raw), true
}
