package catalog

import "strings"

// MinSuggestLength is the shortest trimmed term that produces dropdown suggestions
const MinSuggestLength = 2

// DefaultSuggestLimit caps the number of suggestions returned
const DefaultSuggestLimit = 5

// Facets holds the distinct values offered by the filter dropdowns
type Facets struct {
	Subjects     []string `json:"subjects"`
	Professors   []string `json:"professors"`
	Universities []string `json:"universities"`
}

// BuildFacets collects distinct non-empty subject, professor and university names
// in first-seen order.
func BuildFacets(entries []Entry) Facets {
	f := Facets{
		Subjects:     []string{},
		Professors:   []string{},
		Universities: []string{},
	}
	seenSubjects := map[string]bool{}
	seenProfessors := map[string]bool{}
	seenUniversities := map[string]bool{}

	for _, e := range entries {
		if e.SubjectName != "" && !seenSubjects[e.SubjectName] {
			seenSubjects[e.SubjectName] = true
			f.Subjects = append(f.Subjects, e.SubjectName)
		}
		if e.ProfessorName != "" && !seenProfessors[e.ProfessorName] {
			seenProfessors[e.ProfessorName] = true
			f.Professors = append(f.Professors, e.ProfessorName)
		}
		if e.University != nil && *e.University != "" && !seenUniversities[*e.University] {
			seenUniversities[*e.University] = true
			f.Universities = append(f.Universities, *e.University)
		}
	}
	return f
}

// Option is a named choice in a searchable dropdown
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Suggestions is the result of a dropdown search
type Suggestions struct {
	Options []Option `json:"options"`
	CanAdd  bool     `json:"canAdd"`
}

// Suggest returns up to limit options containing term (case-insensitive).
// Terms shorter than MinSuggestLength return no options. CanAdd is set when the term is
// non-empty and no option has exactly that name.
func Suggest(options []Option, term string, limit int) Suggestions {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	term = strings.TrimSpace(term)
	lower := strings.ToLower(term)

	res := Suggestions{Options: []Option{}}
	if term == "" {
		return res
	}

	res.CanAdd = true
	for _, o := range options {
		if strings.ToLower(o.Name) == lower {
			res.CanAdd = false
			break
		}
	}

	if len([]rune(term)) < MinSuggestLength {
		return res
	}
	for _, o := range options {
		if strings.Contains(strings.ToLower(o.Name), lower) {
			res.Options = append(res.Options, o)
			if len(res.Options) == limit {
				break
			}
		}
	}
	return res
}
