package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/services"
	"github.com/notatki/notehub/internal/middleware"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for JWTAuth
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID > 0 {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	}
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *dto.ErrorDetail `json:"error"`
}

func doRequest(t *testing.T, r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// stubAuthService returns canned results
type stubAuthService struct {
	registerErr error
	lastLogin   *dto.LoginRequest
}

func (s *stubAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &dto.AuthResponse{UserID: 1, Username: req.Username, Token: "tok", TokenType: "Bearer"}, nil
}

func (s *stubAuthService) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	s.lastLogin = req
	if req.Password != "secret1" {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &dto.AuthResponse{UserID: 1, Username: "anna", Token: "tok", TokenType: "Bearer"}, nil
}

func TestAuthController(t *testing.T) {
	svc := &stubAuthService{}
	ctrl := NewAuthController(svc, zerolog.Nop())
	r := gin.New()
	r.POST("/register", ctrl.Register)
	r.POST("/login", ctrl.Login)

	w, env := doRequest(t, r, jsonRequest(http.MethodPost, "/register",
		`{"username":"anna","email":"anna@uni.pl","password":"secret1","confirmPassword":"secret1"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.Equal(t, "anna", auth.Username)
	assert.Equal(t, "tok", auth.Token)

	svc.registerErr = apperrors.ErrEmailAlreadyExists
	w, env = doRequest(t, r, jsonRequest(http.MethodPost, "/register", `{"username":"anna"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email is already registered", env.Error.Message)

	w, env = doRequest(t, r, jsonRequest(http.MethodPost, "/register", `{"username":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)

	w, _ = doRequest(t, r, jsonRequest(http.MethodPost, "/login", `{"login":"anna@uni.pl","password":"secret1"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anna@uni.pl", svc.lastLogin.Login)

	w, env = doRequest(t, r, jsonRequest(http.MethodPost, "/login", `{"login":"anna","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, env.Error.Code)

	w, env = doRequest(t, r, jsonRequest(http.MethodPost, "/login", `{"login":"anna"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password", env.Error.Field)
}

// stubNoteService records the arguments it was called with
type stubNoteService struct {
	filter     catalog.FilterOptions
	createReq  *dto.CreateNoteRequest
	createFile *multipart.FileHeader
	createUser int64
	deleteErr  error
	download   *services.NoteDownload
}

func (s *stubNoteService) ListNotes(_ context.Context, opts catalog.FilterOptions) (*dto.NoteListResponse, error) {
	s.filter = opts
	return &dto.NoteListResponse{Notes: []dto.NoteResponse{}, Filters: opts}, nil
}

func (s *stubNoteService) GetNote(_ context.Context, id int64) (*dto.NoteResponse, error) {
	if id != 1 {
		return nil, apperrors.ErrNoteNotFound
	}
	return &dto.NoteResponse{Note: &models.Note{ID: 1, Title: "Analiza"}}, nil
}

func (s *stubNoteService) ListUserNotes(_ context.Context, userID int64) ([]dto.NoteResponse, error) {
	return []dto.NoteResponse{{Note: &models.Note{ID: 2, UserID: userID}}}, nil
}

func (s *stubNoteService) CreateNote(_ context.Context, userID int64, req *dto.CreateNoteRequest, file *multipart.FileHeader) (*dto.NoteResponse, error) {
	s.createUser, s.createReq, s.createFile = userID, req, file
	return &dto.NoteResponse{Note: &models.Note{ID: 3, Title: req.Title, UserID: userID}}, nil
}

func (s *stubNoteService) UpdateNote(_ context.Context, userID, id int64, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	return &dto.NoteResponse{Note: &models.Note{ID: id, Title: req.Title, UserID: userID}}, nil
}

func (s *stubNoteService) DeleteNote(context.Context, int64, int64) error {
	return s.deleteErr
}

func (s *stubNoteService) OpenDownload(context.Context, int64, int64) (*services.NoteDownload, error) {
	if s.download == nil {
		return nil, apperrors.ErrNoteHasNoFile
	}
	return s.download, nil
}

func newNoteRouter(svc services.NoteService, userID int64) *gin.Engine {
	ctrl := NewNoteController(svc, zerolog.Nop())
	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/notes", ctrl.ListNotes)
	r.GET("/notes/:id", ctrl.GetNote)
	r.POST("/notes", ctrl.CreateNote)
	r.PUT("/notes/:id", ctrl.UpdateNote)
	r.DELETE("/notes/:id", ctrl.DeleteNote)
	r.GET("/notes/:id/download", ctrl.DownloadNote)
	r.GET("/me/notes", ctrl.ListMyNotes)
	return r
}

func TestNoteController_ListBindsFilters(t *testing.T) {
	svc := &stubNoteService{}
	r := newNoteRouter(svc, 0)

	w, _ := doRequest(t, r, httptest.NewRequest(http.MethodGet,
		"/notes?search=ca%C5%82ki&subject=Analiza&professor=dr+Nowak&university=UW&sortBy=rating-desc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.FilterOptions{
		SearchTerm:         "całki",
		SelectedSubject:    "Analiza",
		SelectedProfessor:  "dr Nowak",
		SelectedUniversity: "UW",
		SortBy:             catalog.SortRatingDesc,
	}, svc.filter)
}

func TestNoteController_GetNote(t *testing.T) {
	r := newNoteRouter(&stubNoteService{}, 0)

	w, env := doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"title":"Analiza"`)

	w, env = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", env.Error.Field)

	w, _ = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoteController_CreateMultipart(t *testing.T) {
	svc := &stubNoteService{}
	r := newNoteRouter(svc, 5)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Wykład 2"))
	require.NoError(t, mw.WriteField("subjectId", "1"))
	require.NoError(t, mw.WriteField("professorId", "2"))
	require.NoError(t, mw.WriteField("year", "2024"))
	require.NoError(t, mw.WriteField("noteType", "file"))
	part, err := mw.CreateFormFile("file", "wyklad.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/notes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, _ := doRequest(t, r, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(5), svc.createUser)
	assert.Equal(t, dto.CreateNoteRequest{Title: "Wykład 2", SubjectID: 1, ProfessorID: 2, Year: 2024, NoteType: "file"}, *svc.createReq)
	require.NotNil(t, svc.createFile)
	assert.Equal(t, "wyklad.pdf", svc.createFile.Filename)
}

// oversizedUpload builds a multipart body whose file part alone exceeds uploadBodyLimit
func oversizedUpload(t *testing.T, path, field, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), int(uploadBodyLimit)+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNoteController_CreateRejectsOversizedBody(t *testing.T) {
	svc := &stubNoteService{}
	r := newNoteRouter(svc, 5)

	req := oversizedUpload(t, "/notes", "file", "wyklad.pdf", map[string]string{
		"title": "Wykład 3", "subjectId": "1", "professorId": "2", "year": "2024", "noteType": "file",
	})
	w, env := doRequest(t, r, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	assert.Nil(t, svc.createReq)
	assert.Zero(t, svc.createUser)
}

func TestNoteController_RequiresUser(t *testing.T) {
	r := newNoteRouter(&stubNoteService{}, 0)

	w, env := doRequest(t, r, httptest.NewRequest(http.MethodPost, "/notes", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, env.Error.Code)

	w, _ = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/me/notes", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNoteController_DeleteNotOwner(t *testing.T) {
	r := newNoteRouter(&stubNoteService{deleteErr: apperrors.ErrNotNoteOwner}, 5)

	w, env := doRequest(t, r, httptest.NewRequest(http.MethodDelete, "/notes/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, env.Error.Code)
}

func TestNoteController_Download(t *testing.T) {
	svc := &stubNoteService{download: &services.NoteDownload{
		Filename:    "Wykład 2.pdf",
		ContentType: "application/pdf",
		Body:        io.NopCloser(strings.NewReader("%PDF-data")),
	}}
	r := newNoteRouter(svc, 5)

	w, _ := doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/1/download", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=utf-8''Wyk%C5%82ad%202.pdf")
	assert.Equal(t, "%PDF-data", w.Body.String())

	r = newNoteRouter(&stubNoteService{}, 5)
	w, env := doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/1/download", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "This note has no file to download", env.Error.Message)
}

// stubRatingService validates stars like the real one
type stubRatingService struct{}

func (stubRatingService) ListRatings(context.Context, int64) ([]*models.Rating, error) {
	return []*models.Rating{}, nil
}

func (stubRatingService) GetMyRating(context.Context, int64, int64) (*models.Rating, error) {
	return nil, apperrors.ErrRatingNotFound
}

func (stubRatingService) SaveRating(_ context.Context, userID, noteID int64, req *dto.SaveRatingRequest) (*dto.SaveRatingResponse, error) {
	if req.Stars < 1 || req.Stars > 5 {
		return nil, apperrors.NewValidationError().Add("stars", "Choose between 1 and 5 stars")
	}
	return &dto.SaveRatingResponse{
		Rating:  &models.Rating{NoteID: noteID, UserID: userID, Stars: req.Stars},
		Created: true,
		Action:  services.RatingActionCreated,
	}, nil
}

func TestRatingController(t *testing.T) {
	ctrl := NewRatingController(stubRatingService{})
	r := gin.New()
	r.Use(asUser(5))
	r.GET("/notes/:id/ratings", ctrl.ListRatings)
	r.GET("/notes/:id/ratings/me", ctrl.GetMyRating)
	r.PUT("/notes/:id/ratings", ctrl.SaveRating)

	w, env := doRequest(t, r, jsonRequest(http.MethodPut, "/notes/3/ratings", `{"stars":4,"comment":"ok"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	var saved dto.SaveRatingResponse
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "created", saved.Action)
	assert.Equal(t, int64(3), saved.Rating.NoteID)

	w, env = doRequest(t, r, jsonRequest(http.MethodPut, "/notes/3/ratings", `{"stars":0}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "stars", env.Error.Field)

	w, _ = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/3/ratings/me", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/notes/3/ratings", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

// stubDirectoryService treats "Analiza" as already present
type stubDirectoryService struct {
	lastLimit int
}

func (s *stubDirectoryService) List(context.Context) ([]*models.NamedEntity, error) {
	return []*models.NamedEntity{{ID: 1, Name: "Analiza"}}, nil
}

func (s *stubDirectoryService) Suggest(_ context.Context, term string, limit int) (catalog.Suggestions, error) {
	s.lastLimit = limit
	return catalog.Suggest([]catalog.Option{{ID: 1, Name: "Analiza"}}, term, limit), nil
}

func (s *stubDirectoryService) Create(_ context.Context, name string) (*models.NamedEntity, bool, error) {
	if strings.EqualFold(strings.TrimSpace(name), "analiza") {
		return &models.NamedEntity{ID: 1, Name: "Analiza"}, false, nil
	}
	return &models.NamedEntity{ID: 2, Name: name}, true, nil
}

func TestDirectoryController(t *testing.T) {
	svc := &stubDirectoryService{}
	ctrl := NewDirectoryController(svc)
	r := gin.New()
	r.GET("/subjects", ctrl.List)
	r.GET("/subjects/suggest", ctrl.Suggest)
	r.POST("/subjects", ctrl.Create)

	w, _ := doRequest(t, r, jsonRequest(http.MethodPost, "/subjects", `{"name":"Fizyka"}`))
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env := doRequest(t, r, jsonRequest(http.MethodPost, "/subjects", `{"name":"ANALIZA"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"id":1`)

	w, env = doRequest(t, r, jsonRequest(http.MethodPost, "/subjects", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", env.Error.Field)

	w, env = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/subjects/suggest?q=ana", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.DefaultSuggestLimit, svc.lastLimit)
	var s catalog.Suggestions
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.Len(t, s.Options, 1)
	assert.True(t, s.CanAdd)

	w, _ = doRequest(t, r, httptest.NewRequest(http.MethodGet, "/subjects/suggest?q=ana&limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubUserService struct{}

func (stubUserService) GetProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	return &models.UserProfile{ID: userID, Username: "anna"}, nil
}

func (stubUserService) UpdateProfile(_ context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.UserProfile, error) {
	return &models.UserProfile{ID: userID, Username: req.Username}, nil
}

func (stubUserService) ChangePassword(context.Context, int64, *dto.ChangePasswordRequest) error {
	return nil
}

func (stubUserService) UploadAvatar(_ context.Context, userID int64, fh *multipart.FileHeader) (string, error) {
	return "http://localhost/uploads/avatars/" + fh.Filename, nil
}

func TestUserController(t *testing.T) {
	ctrl := NewUserController(stubUserService{})
	r := gin.New()
	r.Use(asUser(5))
	r.GET("/me/profile", ctrl.GetProfile)
	r.PUT("/me/profile", ctrl.UpdateProfile)
	r.PUT("/me/password", ctrl.ChangePassword)
	r.POST("/me/avatar", ctrl.UploadAvatar)

	w, env := doRequest(t, r, httptest.NewRequest(http.MethodGet, "/me/profile", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"anna"`)

	w, env = doRequest(t, r, jsonRequest(http.MethodPut, "/me/profile", `{"username":"anna_k","studyStartYear":2021}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"anna_k"`)

	w, _ = doRequest(t, r, jsonRequest(http.MethodPut, "/me/password", `{"newPassword":"abcdef","confirmPassword":"abcdef"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = doRequest(t, r, httptest.NewRequest(http.MethodPost, "/me/avatar", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "avatar", env.Error.Field)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/me/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w, env = doRequest(t, r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"avatarUrl":"http://localhost/uploads/avatars/me.png"}`, string(env.Data))

	w, env = doRequest(t, r, oversizedUpload(t, "/me/avatar", "avatar", "huge.png", nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Request body too large", env.Error.Message)
}
