package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/alert"
	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
	emailsvc "github.com/nkashama/duetrack/services/email"
	dummydb "github.com/nkashama/duetrack/storage/dummy"
)

type testApp struct {
	server   *Server
	registry *alert.Registry
	usrRepo  user.Repository
	usrSvc   user.ServiceInterface
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type fakeGoogleVerifier struct {
	identity user.GoogleUser
	err      error
}

func (v fakeGoogleVerifier) VerifyIDToken(_ context.Context, _ string) (user.GoogleUser, error) {
	return v.identity, v.err
}

type testConn struct {
	id     string
	events []wsEvent
}

func (c *testConn) ID() string { return c.id }

func (c *testConn) Send(event string, data interface{}) error {
	c.events = append(c.events, wsEvent{Event: event, Data: data})
	return nil
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		AppName:          "Duetrack",
		SecretKey:        "secret",
		DefaultFromEmail: mail.Address{Name: "Duetrack", Address: "noreply@duetrack.test"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Alert: core.AlertConfig{
			ScanInterval: 20 * time.Second,
			Horizon:      24 * time.Hour,
			DedupTTL:     48 * time.Hour,
		},
	}
}

func newTestApp(t *testing.T, google GoogleVerifier) *testApp {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := newTestConfig()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(dummydb.NewCourseRepository(db))
	tskSvc := task.NewService(dummydb.NewTaskRepository(db), dummydb.NewCourseDirectory(db))
	grpSvc := group.NewService(dummydb.NewGroupRepository(db), dummydb.NewUserDirectory(db))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	registry := alert.NewRegistry()
	dispatcher := alert.NewDispatcher(registry, testLogger{})

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		TaskSvc:        tskSvc,
		GroupSvc:       grpSvc,
		Registry:       registry,
		Dispatcher:     dispatcher,
		GoogleVerifier: google,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testApp{server: server, registry: registry, usrRepo: usrRepo, usrSvc: usrSvc}
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) createUser(t *testing.T, firstName, lastName, email, pwd string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, usr.SetPassword(pwd))
	usr, err := app.usrRepo.CreateUser(usr)
	require.NoError(t, err)
	return usr
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHome(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})
	rec := app.request(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Duetrack API!", rec.Body.String())
}

func TestUserRegisterAndLogin(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})

	rec := app.request(t, http.MethodPost, "/v1/users/register", "", echoMap{
		"first_name":       "Awa",
		"last_name":        "Kalenga",
		"email":            "awa@example.com",
		"password":         "S3cret#Pass",
		"password_confirm": "S3cret#Pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res LoginResponse
	decodeBody(t, rec, &res)
	assert.NotEmpty(t, res.Token)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/register", "", echoMap{
			"first_name":       "Awa",
			"last_name":        "Kalenga",
			"email":            "awa@example.com",
			"password":         "S3cret#Pass",
			"password_confirm": "S3cret#Pass",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login with wrong password fails", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/login", "", echoMap{
			"email":    "awa@example.com",
			"password": "nope",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login succeeds", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/login", "", echoMap{
			"email":    "awa@example.com",
			"password": "S3cret#Pass",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		decodeBody(t, rec, &res)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("profile requires auth", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGoogleAuth(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{
		identity: user.GoogleUser{GoogleID: "g-123", Email: "didi@example.com"},
	})

	rec := app.request(t, http.MethodPost, "/v1/users/google-auth", "", echoMap{
		"id_token":   "fake-token",
		"first_name": "Didi",
		"last_name":  "Mwamba",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	decodeBody(t, rec, &res)
	assert.NotEmpty(t, res.Token)

	usr, err := app.usrSvc.GetByEmail("didi@example.com")
	require.NoError(t, err)
	assert.True(t, usr.IsGoogleUser)
	assert.Equal(t, "g-123", usr.GoogleID)
}

func TestCourseAPI(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})
	usr := app.createUser(t, "Awa", "Kalenga", "awa@example.com", "S3cret#Pass")
	token := app.token(t, usr)

	rec := app.request(t, http.MethodPost, "/v1/courses", token, echoMap{
		"name": "Data Structures",
		"code": "CS201",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var crs course.Course
	decodeBody(t, rec, &crs)
	assert.Equal(t, usr.ID, crs.UserID)

	t.Run("duplicate code is rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/courses", token, echoMap{
			"name": "Other",
			"code": "CS201",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list mine", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/courses", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var courses []course.Course
		decodeBody(t, rec, &courses)
		assert.Len(t, courses, 1)
	})

	t.Run("get by code", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/courses/code/CS201", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("another user's course is invisible", func(t *testing.T) {
		other := app.createUser(t, "Didi", "Mwamba", "didi@example.com", "S3cret#Pass")
		rec := app.request(t, http.MethodGet, "/v1/courses/"+crs.ID, app.token(t, other), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskAPI(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})
	usr := app.createUser(t, "Awa", "Kalenga", "awa@example.com", "S3cret#Pass")
	token := app.token(t, usr)

	dueDate := time.Now().UTC().AddDate(0, 0, 1).Format(task.DueDateLayout)
	newTask := echoMap{
		"title":        "Final report",
		"due_date":     dueDate,
		"due_time":     "11:59 PM",
		"group_status": "individual",
	}

	rec := app.request(t, http.MethodPost, "/v1/tasks", token, newTask)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tsk task.Task
	decodeBody(t, rec, &tsk)
	assert.Equal(t, task.StatusPending, tsk.Status)

	t.Run("duplicate task is rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/tasks", token, newTask)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid due time is rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/tasks", token, echoMap{
			"title":        "Bad clock",
			"due_date":     dueDate,
			"due_time":     "23:59",
			"group_status": "individual",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status update", func(t *testing.T) {
		rec := app.request(t, http.MethodPatch, "/v1/tasks/"+tsk.ID+"/status", token, echoMap{
			"status": task.StatusInProgress,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated task.Task
		decodeBody(t, rec, &updated)
		assert.Equal(t, task.StatusInProgress, updated.Status)
	})

	t.Run("query by status joins course code", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/tasks/status/in-progress", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var tasks []task.WithCourseCode
		decodeBody(t, rec, &tasks)
		require.Len(t, tasks, 1)
		assert.Equal(t, tsk.ID, tasks[0].ID)
	})

	t.Run("week view includes tomorrow's task", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/tasks/week", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var tasks []task.WithCourseCode
		decodeBody(t, rec, &tasks)
		assert.Len(t, tasks, 1)
	})

	t.Run("subtask lifecycle", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/tasks/"+tsk.ID+"/subtasks", token, echoMap{
			"title":    "Draft outline",
			"due_date": dueDate,
			"due_time": "10:00 AM",
			"assignee": usr.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var st task.Subtask
		decodeBody(t, rec, &st)
		assert.Equal(t, tsk.ID, st.ParentTask)

		rec = app.request(t, http.MethodGet, "/v1/tasks/"+tsk.ID+"/subtasks", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var subtasks []task.Subtask
		decodeBody(t, rec, &subtasks)
		assert.Len(t, subtasks, 1)

		rec = app.request(t, http.MethodDelete, "/v1/tasks/"+tsk.ID+"/subtasks/"+st.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("status analytics", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/tasks/analytics/status", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats task.StatusStats
		decodeBody(t, rec, &stats)
		assert.Equal(t, 1, stats.InProgress)
	})
}

func TestGroupAPI(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})
	usr := app.createUser(t, "Awa", "Kalenga", "awa@example.com", "S3cret#Pass")
	member := app.createUser(t, "Didi", "Mwamba", "didi@example.com", "S3cret#Pass")
	token := app.token(t, usr)

	t.Run("unknown member emails are reported", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/groups", token, echoMap{
			"name":          "Study group",
			"member_emails": []string{"didi@example.com", "ghost@example.com"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res struct {
			Missing []string `json:"missing"`
		}
		decodeBody(t, rec, &res)
		assert.Equal(t, []string{"ghost@example.com"}, res.Missing)
	})

	rec := app.request(t, http.MethodPost, "/v1/groups", token, echoMap{
		"name":          "Study group",
		"member_emails": []string{"didi@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var det group.Detail
	decodeBody(t, rec, &det)
	require.Len(t, det.Members, 1)
	assert.Equal(t, member.ID, det.Members[0].ID)

	t.Run("member can read but not update", func(t *testing.T) {
		memberToken := app.token(t, member)
		rec := app.request(t, http.MethodGet, "/v1/groups/"+det.ID, memberToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = app.request(t, http.MethodPut, "/v1/groups/"+det.ID, memberToken, echoMap{"name": "Hijacked"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestTestAlert(t *testing.T) {
	app := newTestApp(t, fakeGoogleVerifier{})

	t.Run("missing userId or taskId", func(t *testing.T) {
		for _, body := range []echoMap{
			{},
			{"userId": "u1"},
			{"taskId": "t1"},
		} {
			rec := app.request(t, http.MethodPost, "/v1/test-alert", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var res SuccessResponse
			decodeBody(t, rec, &res)
			assert.False(t, res.Success)
			assert.Equal(t, "Missing userId or taskId", res.Message)
		}
	})

	t.Run("dispatches to registered connections", func(t *testing.T) {
		conn := &testConn{id: "c1"}
		app.registry.Register("u1", conn)

		rec := app.request(t, http.MethodPost, "/v1/test-alert", "", echoMap{
			"userId": "u1",
			"taskId": "t1",
			"title":  "Final report",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res SuccessResponse
		decodeBody(t, rec, &res)
		assert.True(t, res.Success)
		assert.Equal(t, "Notification sent", res.Message)

		require.Len(t, conn.events, 1)
		assert.Equal(t, alert.EventDeadlineAlert, conn.events[0].Event)
		n, ok := conn.events[0].Data.(alert.Notification)
		require.True(t, ok)
		assert.Equal(t, "t1", n.TaskID)
		assert.Equal(t, `Your task "Final report" is due soon!`, n.Message)
	})
}

type echoMap = echo.Map
