package dashboard

import (
	"context"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/shopconsole/internal/forms"
	"github.com/patric-chuzhbe/shopconsole/internal/models"
)

// Modal is the dialog currently open over the user table.
type Modal string

const (
	ModalNone          Modal = ""
	ModalCreate        Modal = "create"
	ModalUpdate        Modal = "update"
	ModalRead          Modal = "read"
	ModalConfirmDelete Modal = "confirm_delete"
)

// NoticeKind classifies a one-shot message shown above the table.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message, dropped once it has been rendered.
type Notice struct {
	Kind NoticeKind
	Text string
}

// State is the view state of one browser's dashboard. It outlives single
// requests and is only ever changed through a Dashboard.
type State struct {
	mu sync.Mutex

	mounted bool
	actor   string
	// token the view was mounted for; another token means another session
	mountedFor string

	users     []models.User
	listError string

	modal         Modal
	draft         forms.UserDraft
	selectedID    int64
	pendingDelete int64

	notice *Notice

	inflight map[string]struct{}

	viewCtx    context.Context
	cancelView context.CancelFunc
}

// NewState returns an unmounted dashboard state.
func NewState() *State {
	return &State{
		users:    []models.User{},
		inflight: map[string]struct{}{},
	}
}

// Snapshot is a consistent copy of the state for rendering. Draft never
// carries a password.
type Snapshot struct {
	Mounted       bool
	Actor         string
	Users         models.Users
	ListError     string
	Modal         Modal
	Draft         forms.UserDraft
	Selected      *models.User
	PendingDelete *models.User
	Notice        *Notice
}

// Snapshot copies the state for rendering and drops the pending notice.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Mounted:   s.mounted,
		Actor:     s.actor,
		Users:     append(models.Users{}, s.users...),
		ListError: s.listError,
		Modal:     s.modal,
		Draft:     forms.UserDraft{Fullname: s.draft.Fullname, Username: s.draft.Username},
		Notice:    s.notice,
	}
	if user, ok := s.find(s.selectedID); ok {
		snapshot.Selected = &user
	}
	if user, ok := s.find(s.pendingDelete); ok {
		snapshot.PendingDelete = &user
	}
	s.notice = nil

	return snapshot
}

// Mounted reports whether the view has completed its initialisation.
func (s *State) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mounted
}

// MountedFor reports whether the view has been mounted for token.
func (s *State) MountedFor(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mounted && s.mountedFor == token
}

// Teardown ends the view: in-flight calls are cancelled and the next
// activation starts from scratch.
func (s *State) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelView != nil {
		s.cancelView()
	}
	s.viewCtx = nil
	s.cancelView = nil
	s.mounted = false
	s.actor = ""
	s.mountedFor = ""
	s.users = []models.User{}
	s.listError = ""
	s.resetModal()
	s.notice = nil
}

// activate starts a view lifetime unless one is already running.
func (s *State) activate() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.viewCtx == nil || s.viewCtx.Err() != nil {
		s.viewCtx, s.cancelView = context.WithCancel(context.Background())
	}

	return s.viewCtx
}

// bind derives a context that ends with either the request or the view.
func (s *State) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	viewCtx := s.activate()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(viewCtx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

// acquire marks key as in flight. It fails with ErrBusy when a call for the
// same key has not resolved yet.
func (s *State) acquire(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[key]; busy {
		return nil, ErrBusy
	}
	s.inflight[key] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

// update runs fn under the lock.
func (s *State) update(fn func(s *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s)
}

// lookup finds a user of the current list by id.
func (s *State) lookup(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.find(id)
}

func (s *State) find(id int64) (models.User, bool) {
	if id == 0 {
		return models.User{}, false
	}

	user, ok := funk.Find(s.users, func(u models.User) bool {
		return u.ID == id
	}).(models.User)

	return user, ok
}

func (s *State) remove(id int64) {
	s.users = funk.Filter(s.users, func(u models.User) bool {
		return u.ID != id
	}).([]models.User)
}

func (s *State) replace(updated models.User) {
	for i := range s.users {
		if s.users[i].ID == updated.ID {
			s.users[i] = updated
			return
		}
	}
}

func (s *State) resetModal() {
	s.modal = ModalNone
	s.draft = forms.UserDraft{}
	s.selectedID = 0
	s.pendingDelete = 0
}

func (s *State) notify(kind NoticeKind, text string) {
	s.notice = &Notice{Kind: kind, Text: text}
}
