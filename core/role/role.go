// Package role holds the closed set of principal roles and the access policy the route guard
// applies to them.
package role

// Role is a canonical access class. The backend only ever issues these three.
type Role string

const (
	Admin     Role = "ADMIN"
	Professor Role = "PROFESSOR"
	Student   Role = "STUDENT"
)

// Teacher is the legacy requirement string protected task routes are declared with.
// It is never issued by the backend.
const Teacher = "TEACHER"

var All = []Role{Admin, Professor, Student}

var aliases = map[string]Role{
	"ADMIN":     Admin,
	"admin":     Admin,
	"PROFESSOR": Professor,
	"professor": Professor,
	"TEACHER":   Professor,
	"teacher":   Professor,
	"STUDENT":   Student,
	"student":   Student,
}

// Canonicalize maps known aliases to their canonical Role.
// Unknown strings pass through unchanged and therefore never match a canonical role.
func Canonicalize(s string) Role {
	if r, ok := aliases[s]; ok {
		return r
	}
	return Role(s)
}

func (r Role) Valid() bool {
	switch r {
	case Admin, Professor, Student:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Decide reports whether a principal holding actual may access a view that requires required.
// Comparison is literal and case-sensitive: Decide("ADMIN", "admin") is false.
func Decide(required, actual string) bool {
	if required == Teacher {
		return professorEquivalent(actual)
	}
	return actual == required
}

// professorEquivalent is the only place legacy aliasing leaks into access decisions.
// Note the asymmetry: "professor" is accepted but "teacher" and "Professor" are not.
func professorEquivalent(actual string) bool {
	switch actual {
	case "TEACHER", "PROFESSOR", "professor":
		return true
	}
	return false
}
