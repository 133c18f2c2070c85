package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository      *UserRepository
	NoteRepository      *NoteRepository
	SubjectRepository   *NamedEntityRepository
	ProfessorRepository *NamedEntityRepository
	RatingRepository    *RatingRepository
	DownloadRepository  *DownloadRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:      NewUserRepository(db),
		NoteRepository:      NewNoteRepository(db),
		SubjectRepository:   NewSubjectRepository(db),
		ProfessorRepository: NewProfessorRepository(db),
		RatingRepository:    NewRatingRepository(db),
		DownloadRepository:  NewDownloadRepository(db),
	}
}
