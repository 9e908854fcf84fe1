// Package dashboard implements the user management view: the user table
// and the create, update, read and delete dialogs over it.
//
// A State holds what the browser sees between requests. A Dashboard binds
// that state to the API and the session for the duration of one request.
// Local state only changes after the API confirmed an operation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/shopconsole/internal/apiclient"
	"github.com/patric-chuzhbe/shopconsole/internal/forms"
	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/models"
	"github.com/patric-chuzhbe/shopconsole/internal/routes"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

const (
	MessageCreateFailed = "Failed to create user. Please try again."
	MessageUpdateFailed = "Failed to update user. Please try again."
	MessageDeleteFailed = "Failed to delete user. Please try again."
	MessageListFailed   = "Failed to load users. Please try again."
	MessageUnexpected   = "An unexpected error occurred."
	MessageDeleted      = "Successfully Deleted"
	MessageBusy         = "A previous request for this user is still in progress."
	MessageUserNotFound = "User not found."
	MessageNotConfirmed = "Deletion was not confirmed."
)

const (
	createOperationKey = "create"
	updateOperationKey = "update:%d"
	deleteOperationKey = "delete:%d"
)

var (
	// ErrBusy is returned while an earlier call for the same target is pending.
	ErrBusy = errors.New("operation already in progress")

	// ErrNotFound is returned for ids missing from the current list.
	ErrNotFound = errors.New("user not in list")

	// ErrNotConfirmed is returned by ConfirmDelete without a matching RequestDelete.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)

type usersAPI interface {
	ListUsers(ctx context.Context) (models.Users, error)
	CreateUser(ctx context.Context, fullname, username, password string) (*models.CreateUserResponse, error)
	UpdateUser(ctx context.Context, id int64, fullname, username, password string) (*models.UpdateUserResponse, error)
	DeleteUser(ctx context.Context, id int64) (*models.MessageResponse, error)
}

// Dashboard drives State for one request.
type Dashboard struct {
	state *State
	api   usersAPI
	store session.Store
	nav   routes.Navigator
	now   func() time.Time
}

// New binds state to the API, the session store and a navigator.
func New(state *State, api usersAPI, store session.Store, nav routes.Navigator) *Dashboard {
	return &Dashboard{
		state: state,
		api:   api,
		store: store,
		nav:   nav,
		now:   time.Now,
	}
}

// WithClock replaces the clock used to check the session.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// Mount decodes the session and fetches the user list concurrently. A
// session that cannot be decoded sends the user to Login. A failed list
// fetch leaves an empty table and a banner.
func (d *Dashboard) Mount(ctx context.Context) error {
	ctx, cancel := d.state.bind(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	token := d.token()

	var actor string
	g.Go(func() error {
		claims, err := session.Current(d.store, d.now())
		if err != nil {
			return err
		}
		actor = claims.Username
		return nil
	})

	var (
		users   models.Users
		listErr error
	)
	g.Go(func() error {
		users, listErr = d.api.ListUsers(gCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Log.Infoln("Dashboard session rejected: ", zap.Error(err))
		d.state.Teardown()
		d.nav.Navigate(routes.Login)
		return fmt.Errorf("in dashboard.Mount(): %w", err)
	}

	d.state.update(func(s *State) {
		if s.viewCtx == nil || s.viewCtx.Err() != nil {
			return
		}
		s.mounted = true
		s.actor = actor
		s.mountedFor = token
		s.applyList(users, listErr)
	})

	return nil
}

// Activate mounts the view unless it is already mounted for the session
// currently in the store. A view left over from another session is torn
// down and mounted again.
func (d *Dashboard) Activate(ctx context.Context) error {
	token := d.token()
	if d.state.MountedFor(token) {
		return nil
	}

	if d.state.Mounted() {
		d.state.Teardown()
	}

	return d.Mount(ctx)
}

func (d *Dashboard) token() string {
	stored, _ := d.store.Read()
	token, _ := session.Normalize(stored)
	return token
}

// Reload refetches the user list, keeping the table as is on failure.
func (d *Dashboard) Reload(ctx context.Context) error {
	ctx, cancel := d.state.bind(ctx)
	defer cancel()

	users, err := d.api.ListUsers(ctx)

	d.state.update(func(s *State) {
		if !s.mounted {
			return
		}
		if err != nil {
			logger.Log.Errorln("Error calling the `api.ListUsers()`: ", zap.Error(err))
			s.listError = MessageListFailed
			return
		}
		s.users = append([]models.User{}, users...)
		s.listError = ""
	})

	return err
}

func (s *State) applyList(users models.Users, err error) {
	if err != nil {
		logger.Log.Errorln("Error calling the `api.ListUsers()`: ", zap.Error(err))
		s.users = []models.User{}
		s.listError = MessageListFailed
		return
	}

	s.users = append([]models.User{}, users...)
	s.listError = ""
}

// OpenCreate opens the create dialog with an empty draft.
func (d *Dashboard) OpenCreate() {
	d.state.update(func(s *State) {
		s.resetModal()
		s.modal = ModalCreate
	})
}

// OpenUpdate opens the update dialog prefilled from the listed user. The
// password starts blank.
func (d *Dashboard) OpenUpdate(id int64) error {
	return d.open(id, ModalUpdate)
}

// OpenRead opens the read-only dialog for a listed user.
func (d *Dashboard) OpenRead(id int64) error {
	return d.open(id, ModalRead)
}

func (d *Dashboard) open(id int64, modal Modal) error {
	var err error
	d.state.update(func(s *State) {
		user, ok := s.find(id)
		if !ok {
			s.notify(NoticeError, MessageUserNotFound)
			err = ErrNotFound
			return
		}
		s.resetModal()
		s.modal = modal
		s.selectedID = user.ID
		s.draft = forms.UserDraft{Fullname: user.Fullname, Username: user.Username}
	})

	return err
}

// CloseModal closes whatever dialog is open and drops its draft.
func (d *Dashboard) CloseModal() {
	d.state.update(func(s *State) {
		s.resetModal()
	})
}

// SubmitCreate validates draft and creates the user. The new record is
// appended as returned by the server and the dialog closes. On failure the
// dialog stays open with the draft kept.
func (d *Dashboard) SubmitCreate(ctx context.Context, draft forms.UserDraft) error {
	d.keepDraft(ModalCreate, 0, draft)

	if err := forms.ValidateCreateUser(draft); err != nil {
		d.state.update(func(s *State) { s.notify(NoticeWarning, err.Error()) })
		return err
	}

	release, err := d.state.acquire(createOperationKey)
	if err != nil {
		d.state.update(func(s *State) { s.notify(NoticeWarning, MessageBusy) })
		return err
	}
	defer release()

	ctx, cancel := d.state.bind(ctx)
	defer cancel()

	resp, err := d.api.CreateUser(ctx, draft.Fullname, draft.Username, draft.Password)
	if err != nil {
		logger.Log.Errorln("Error calling the `api.CreateUser()`: ", zap.Error(err))
		d.state.update(func(s *State) { s.notify(NoticeError, failureMessage(err, MessageCreateFailed)) })
		return err
	}

	d.state.update(func(s *State) {
		if !s.mounted {
			return
		}
		s.users = append(s.users, resp.NewUser)
		s.resetModal()
		s.notify(NoticeSuccess, resp.Message)
	})

	return nil
}

// SubmitUpdate validates draft and updates user id. A blank password leaves
// the stored one alone. Only the name fields of the local record change.
func (d *Dashboard) SubmitUpdate(ctx context.Context, id int64, draft forms.UserDraft) error {
	if _, ok := d.state.lookup(id); !ok {
		d.state.update(func(s *State) { s.notify(NoticeError, MessageUserNotFound) })
		return ErrNotFound
	}

	d.keepDraft(ModalUpdate, id, draft)

	if err := forms.ValidateUpdateUser(draft); err != nil {
		d.state.update(func(s *State) { s.notify(NoticeWarning, err.Error()) })
		return err
	}

	release, err := d.state.acquire(fmt.Sprintf(updateOperationKey, id))
	if err != nil {
		d.state.update(func(s *State) { s.notify(NoticeWarning, MessageBusy) })
		return err
	}
	defer release()

	ctx, cancel := d.state.bind(ctx)
	defer cancel()

	resp, err := d.api.UpdateUser(ctx, id, draft.Fullname, draft.Username, draft.Password)
	if err != nil {
		logger.Log.Errorln("Error calling the `api.UpdateUser()`: ", zap.Error(err))
		d.state.update(func(s *State) { s.notify(NoticeError, failureMessage(err, MessageUpdateFailed)) })
		return err
	}

	d.state.update(func(s *State) {
		if !s.mounted {
			return
		}
		current, ok := s.find(id)
		if !ok {
			return
		}
		current.Fullname, current.Username = draft.Fullname, draft.Username
		if resp.UpdatedUser.ID == id {
			current.Fullname, current.Username = resp.UpdatedUser.Fullname, resp.UpdatedUser.Username
		}
		s.replace(current)
		s.resetModal()
		s.notify(NoticeSuccess, resp.Message)
	})

	return nil
}

// RequestDelete asks for confirmation before user id is deleted.
func (d *Dashboard) RequestDelete(id int64) error {
	var err error
	d.state.update(func(s *State) {
		if _, ok := s.find(id); !ok {
			s.notify(NoticeError, MessageUserNotFound)
			err = ErrNotFound
			return
		}
		s.resetModal()
		s.modal = ModalConfirmDelete
		s.pendingDelete = id
	})

	return err
}

// CancelDelete drops a pending deletion. Nothing is sent to the API.
func (d *Dashboard) CancelDelete() {
	d.state.update(func(s *State) {
		if s.modal == ModalConfirmDelete {
			s.resetModal()
		}
	})
}

// ConfirmDelete deletes user id, which must be the one pending
// confirmation. The record leaves the table only once the API agreed.
func (d *Dashboard) ConfirmDelete(ctx context.Context, id int64) error {
	var err error
	d.state.update(func(s *State) {
		if s.modal != ModalConfirmDelete || s.pendingDelete != id {
			s.notify(NoticeWarning, MessageNotConfirmed)
			err = ErrNotConfirmed
			return
		}
		s.resetModal()
	})
	if err != nil {
		return err
	}

	release, err := d.state.acquire(fmt.Sprintf(deleteOperationKey, id))
	if err != nil {
		d.state.update(func(s *State) { s.notify(NoticeWarning, MessageBusy) })
		return err
	}
	defer release()

	ctx, cancel := d.state.bind(ctx)
	defer cancel()

	if _, err := d.api.DeleteUser(ctx, id); err != nil {
		logger.Log.Errorln("Error calling the `api.DeleteUser()`: ", zap.Error(err))
		d.state.update(func(s *State) { s.notify(NoticeError, failureMessage(err, MessageDeleteFailed)) })
		return err
	}

	d.state.update(func(s *State) {
		if !s.mounted {
			return
		}
		s.remove(id)
		s.notify(NoticeSuccess, MessageDeleted)
	})

	return nil
}

// Logout clears the session, tears the view down and goes to Login.
func (d *Dashboard) Logout() {
	if err := d.store.Clear(); err != nil {
		logger.Log.Errorln("Error calling the `store.Clear()`: ", zap.Error(err))
	}
	d.state.Teardown()
	d.nav.Navigate(routes.Login)
}

func (d *Dashboard) keepDraft(modal Modal, id int64, draft forms.UserDraft) {
	d.state.update(func(s *State) {
		s.modal = modal
		s.selectedID = id
		s.pendingDelete = 0
		s.draft = forms.UserDraft{Fullname: draft.Fullname, Username: draft.Username}
	})
}

func failureMessage(err error, fallback string) string {
	var requestErr *apiclient.RequestError
	if !errors.As(err, &requestErr) {
		return MessageUnexpected
	}

	if !requestErr.HasStatus() {
		return MessageUnexpected
	}
	if requestErr.Message != "" {
		return requestErr.Message
	}

	return fallback
}
