package sessions

// FindLive returns the first live session in items. Only one should ever
// exist per user; duplicates are tolerated by returning the first.
func FindLive(items []Session) (Session, bool) {
	for _, s := range items {
		if s.IsLive() {
			return s, true
		}
	}
	return Session{}, false
}

func CanStartLive(items []Session) bool {
	_, found := FindLive(items)
	return !found
}

func Completed(items []Session) []Session {
	out := make([]Session, 0, len(items))
	for _, s := range items {
		if s.IsCompleted() {
			out = append(out, s)
		}
	}
	return out
}

// LatestCompleted returns the completed session that ended last.
func LatestCompleted(items []Session) (Session, bool) {
	var (
		latest Session
		found  bool
	)
	for _, s := range items {
		if !s.IsCompleted() {
			continue
		}
		if !found || s.EndTime.After(*latest.EndTime) {
			latest = s
			found = true
		}
	}
	return latest, found
}
