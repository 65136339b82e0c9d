package bugfix

import (
	"regexp"
	"strings"

	"github.com/masmgr/tdrspots/internal/git"
)

// Classifier decides whether a commit fixes a bug.
type Classifier interface {
	IsBugfixCommit(c git.CommitInfo) bool
}

// BugfixResult holds the result of bugfix detection for a set of commits.
type BugfixResult struct {
	// BugfixCommits is the set of commit SHAs identified as bugfix commits.
	BugfixCommits map[string]struct{}
	// Ordered lists the bugfix SHAs in the order the commits were given.
	Ordered []string
	// TotalBugfixes is the total number of bugfix commits detected.
	TotalBugfixes int
}

// Detector detects bugfix commits by matching commit messages against regex patterns.
type Detector struct {
	patterns []*regexp.Regexp
}

// NewDetector creates a new Detector from a list of regex pattern strings.
// Patterns are compiled as case-insensitive. Returns an error if any pattern fails to compile.
func NewDetector(patterns []string) (*Detector, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &Detector{patterns: compiled}, nil
}

// IsBugfix reports whether the message matches any of the detector's patterns
// anywhere in its text.
func (d *Detector) IsBugfix(message string) bool {
	for _, re := range d.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// IsBugfixCommit classifies a commit by its full message.
func (d *Detector) IsBugfixCommit(c git.CommitInfo) bool {
	return d.IsBugfix(c.Message)
}

// CommitSet classifies commits by membership in a known set of bug-fixing SHAs,
// such as the output of issue linking.
type CommitSet map[string]struct{}

// NewCommitSet builds a CommitSet from SHAs.
func NewCommitSet(shas []string) CommitSet {
	s := make(CommitSet, len(shas))
	for _, sha := range shas {
		if sha = strings.TrimSpace(sha); sha != "" {
			s[sha] = struct{}{}
		}
	}
	return s
}

// IsBugfixCommit reports whether the commit SHA is in the set.
func (s CommitSet) IsBugfixCommit(c git.CommitInfo) bool {
	_, ok := s[c.SHA]
	return ok
}

// Detect scans the given change sets and returns the commits the classifier accepts.
func Detect(c Classifier, changeSets []git.CommitChangeSet) *BugfixResult {
	result := &BugfixResult{BugfixCommits: make(map[string]struct{})}
	if c == nil {
		return result
	}

	for _, cs := range changeSets {
		if !c.IsBugfixCommit(cs.Commit) {
			continue
		}
		if _, seen := result.BugfixCommits[cs.Commit.SHA]; seen {
			continue
		}
		result.BugfixCommits[cs.Commit.SHA] = struct{}{}
		result.Ordered = append(result.Ordered, cs.Commit.SHA)
		result.TotalBugfixes++
	}

	return result
}

var (
	_ Classifier = (*Detector)(nil)
	_ Classifier = CommitSet(nil)
)
