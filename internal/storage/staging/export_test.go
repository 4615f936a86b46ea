package staging

// SetRename swaps the rename used by Commit
func SetRename(s *Staging, fn func(oldpath, newpath string) error) {
	s.rename = fn
}
