package sessions

import "os"

// Baseline is a transcript snapshot captured immediately before injection.
// The watcher ignores everything at or before Size, which bounds what a
// continuously flushing session can make it consider.
type Baseline struct {
	FilePath  string
	SessionID string
	Size      int64
}

// SnapshotBaseline captures the current session file for cwd and its byte
// length. Returns nil when the cwd has no session file yet.
func (ix *Index) SnapshotBaseline(cwd string) *Baseline {
	sf := ix.LatestSessionFileForCwd(cwd)
	if sf == nil {
		return nil
	}
	info, err := os.Stat(sf.FilePath)
	if err != nil {
		return nil
	}
	return &Baseline{
		FilePath:  sf.FilePath,
		SessionID: sf.SessionID,
		Size:      info.Size(),
	}
}
