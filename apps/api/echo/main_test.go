package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/hotaru-ritsuki/course-api-sub000/apps/api/echo"
	"github.com/hotaru-ritsuki/course-api-sub000/core"
	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
	emailsvc "github.com/hotaru-ritsuki/course-api-sub000/services/email"
	logsvc "github.com/hotaru-ritsuki/course-api-sub000/services/logger"
	inmemdb "github.com/hotaru-ritsuki/course-api-sub000/storage/database/inmem"
)

var (
	usrSvc  *user.Service
	usrRepo user.Repository
	crsRepo course.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func testConfig() *core.Config {
	return &core.Config{
		TestMode:                  true,
		AppName:                   "CourseAPI",
		SecretKey:                 []byte("secret"),
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromAddr:           "noreply@localhost",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        30 * time.Minute,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		},
	}
}

func setup(t *testing.T) *echoapi.Server {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := testConfig()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)

	usrSvc = user.NewService(
		conf,
		usrRepo,
		user.NewTokenService(conf),
		user.NewRepositoryAuthenticator(usrRepo),
		emailsvc.NewConsoleServiceMock(conf),
	)
	emailsvc.ClearSentMessages()

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	return echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			CourseRepo: crsRepo,
			Validate:   validate,
			Translator: translator,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(t *testing.T, email, pwd, role string) user.User {
	t.Helper()
	usr := user.User{
		ID:       "u-" + email,
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := usrSvc.Tokens().IssueAccessToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func getRefreshToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := usrSvc.Tokens().IssueRefreshToken(usr)
	if err != nil {
		t.Fatalf("getRefreshToken() failed: %v", err)
	}
	return token
}

func jsonBody(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("jsonBody() failed: %v", err)
	}
	return b
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody() failed: %v (body %s)", err, rec.Body.String())
	}
}
