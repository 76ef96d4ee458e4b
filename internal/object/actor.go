package object

import "strings"

// Actor is a commit author or committer.
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ParseActor parses "Name <email>". Input without an email becomes a bare name.
func ParseActor(s string) Actor {
	s = strings.TrimSpace(s)
	open := strings.LastIndexByte(s, '<')
	if open < 0 || !strings.HasSuffix(s, ">") {
		return Actor{Name: s}
	}
	return Actor{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : len(s)-1],
	}
}

func (a Actor) String() string {
	switch {
	case a.Email == "":
		return a.Name
	case a.Name == "":
		return "<" + a.Email + ">"
	}
	return a.Name + " <" + a.Email + ">"
}
