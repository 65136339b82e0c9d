package git

import "context"

// MockHistoryReader is a test double for HistoryReader.
// It allows tests to provide predefined commit data without needing a real Git repository.
type MockHistoryReader struct {
	ChangeSets []CommitChangeSet
	Error      error
}

// NewMockHistoryReader creates a new MockHistoryReader with the given data.
func NewMockHistoryReader(changeSets []CommitChangeSet, err error) *MockHistoryReader {
	return &MockHistoryReader{
		ChangeSets: changeSets,
		Error:      err,
	}
}

// ReadChanges returns the predefined change sets or error.
func (m *MockHistoryReader) ReadChanges(_ context.Context) ([]CommitChangeSet, error) {
	return m.ChangeSets, m.Error
}

// ReadCommits returns the commits of the predefined change sets or error.
func (m *MockHistoryReader) ReadCommits(_ context.Context) ([]CommitInfo, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	infos := make([]CommitInfo, 0, len(m.ChangeSets))
	for _, cs := range m.ChangeSets {
		infos = append(infos, cs.Commit)
	}
	return infos, nil
}

// Compile-time interface conformance checks.
var (
	_ RepositoryReader = (*MockHistoryReader)(nil)
	_ CommitLister     = (*MockHistoryReader)(nil)
)
