package render

// scope collects release functions for resources acquired during a
// multi-step operation so a failure partway through can hand everything
// back in reverse order.
type scope struct {
	releases []func()
}

func (s *scope) add(release func()) {
	s.releases = append(s.releases, release)
}

func (s *scope) release() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}
