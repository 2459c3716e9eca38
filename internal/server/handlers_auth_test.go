package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablerolabs/tablero/internal/activity"
	"github.com/tablerolabs/tablero/internal/config"
	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/hub"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// --- fakes ---

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	if _, exists := f.users[username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	user := &domain.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.users[username] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// fakeBoardRepo stores boards in memory and fires the mutation observer the
// way the real repo does.
type fakeBoardRepo struct {
	boards   []*domain.Board
	observer domain.MutationObserver
}

func (f *fakeBoardRepo) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*domain.Board, error) {
	board := &domain.Board{ID: uuid.New(), Name: name, Description: description, OwnerID: ownerID}
	f.boards = append(f.boards, board)
	f.observer.BoardSaved(ctx, board, true)
	return board, nil
}

func (f *fakeBoardRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Board, error) {
	for _, b := range f.boards {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBoardRepo) List(context.Context) ([]*domain.Board, error) {
	return f.boards, nil
}

func (f *fakeBoardRepo) Update(ctx context.Context, id uuid.UUID, name, description string) (*domain.Board, error) {
	for _, b := range f.boards {
		if b.ID == id {
			b.Name = name
			b.Description = description
			f.observer.BoardSaved(ctx, b, false)
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, b := range f.boards {
		if b.ID == id {
			f.boards = append(f.boards[:i], f.boards[i+1:]...)
			f.observer.BoardDeleted(ctx, b)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memberAdd struct {
	boardID uuid.UUID
	userID  uuid.UUID
	role    domain.Role
}

type fakeMemberRepo struct {
	added []memberAdd
}

func (f *fakeMemberRepo) Add(_ context.Context, boardID, userID uuid.UUID, role domain.Role) (*domain.BoardMember, error) {
	f.added = append(f.added, memberAdd{boardID: boardID, userID: userID, role: role})
	return &domain.BoardMember{ID: uuid.New(), BoardID: boardID, UserID: userID, Role: role}, nil
}

func (f *fakeMemberRepo) ListByBoard(context.Context, uuid.UUID) ([]*domain.BoardMember, error) {
	return nil, nil
}

type fakeActivityRepo struct {
	records []*domain.ActivityRecord
}

func (f *fakeActivityRepo) Insert(_ context.Context, rec *domain.ActivityRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeActivityRepo) ListRecent(_ context.Context, limit int) ([]*domain.ActivityRecord, error) {
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeActivityRepo) AttributeNewestProvisional(_ context.Context, kind domain.EntityKind, entityID, actorID uuid.UUID, action string) error {
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.EntityKind == kind && rec.EntityID == entityID && rec.Provisional() {
			rec.ActorID = &actorID
			rec.Action = action
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeActivityRepo) DeleteNewestProvisional(_ context.Context, kind domain.EntityKind, entityID uuid.UUID) error {
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.EntityKind == kind && rec.EntityID == entityID && rec.Provisional() {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type serverFixture struct {
	srv     *Server
	users   *fakeUserRepo
	boards  *fakeBoardRepo
	members *fakeMemberRepo
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	cfg := &config.Config{AppEnv: "test", Port: "0", JWTSecret: testJWTSecret}

	users := &fakeUserRepo{users: make(map[string]*domain.User)}
	boards := &fakeBoardRepo{observer: domain.NopObserver{}}
	members := &fakeMemberRepo{}
	records := &fakeActivityRepo{}

	h := hub.NewHub(clockwork.NewRealClock())
	t.Cleanup(func() { h.Stop() })

	srv := NewServer(cfg, nil, Repositories{
		Users:    users,
		Boards:   boards,
		Members:  members,
		Activity: records,
	}, h, activity.NewAttributor(records, clock))

	return &serverFixture{srv: srv, users: users, boards: boards, members: members}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.echo.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestRegister_CreatesUserAndJoinsAllBoards(t *testing.T) {
	f := newTestServer(t)
	f.boards.boards = []*domain.Board{
		{ID: uuid.New(), Name: "Sprint"},
		{ID: uuid.New(), Name: "Backlog"},
	}

	rec := f.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "secret-password",
	}, "")

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana", resp.User.Username)

	// The new account is a member of every existing board.
	require.Len(t, f.members.added, 2)
	for _, add := range f.members.added {
		assert.Equal(t, domain.RoleMember, add.role)
	}

	// Password is stored hashed.
	user := f.users.users["ana"]
	require.NotNil(t, user)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newTestServer(t)

	first := f.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "secret-password",
	}, "")
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ana", "email": "other@example.com", "password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	f := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	f.users.users["ana"] = &domain.User{ID: uuid.New(), Username: "ana", PasswordHash: string(hash)}

	rec := f.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "ana", "password": "secret-password",
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	f.users.users["ana"] = &domain.User{ID: uuid.New(), Username: "ana", PasswordHash: string(hash)}

	rec := f.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "ana", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "nobody", "password": "whatever",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodGet, "/api/boards", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodGet, "/api/boards", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	f := newTestServer(t)
	token, err := f.srv.issueToken(uuid.New(), "ana")
	require.NoError(t, err)

	rec := f.request(t, http.MethodGet, "/api/boards", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	f := newTestServer(t)
	userID := uuid.New()

	token, err := f.srv.issueToken(userID, "ana")
	require.NoError(t, err)

	gotID, username, err := f.srv.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "ana", username)
}

func TestParseToken_WrongSecret(t *testing.T) {
	f := newTestServer(t)
	other := newTestServer(t)
	other.srv.config.JWTSecret = "ffffffffffffffffffffffffffffffff"

	token, err := other.srv.issueToken(uuid.New(), "ana")
	require.NoError(t, err)

	_, _, err = f.srv.parseToken(token)
	assert.Error(t, err)
}
