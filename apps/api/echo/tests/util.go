package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/scholium-app/scholium/apps/api/echo"
	"github.com/scholium-app/scholium/core"
	"github.com/scholium-app/scholium/core/admin"
	"github.com/scholium-app/scholium/core/homework"
	"github.com/scholium-app/scholium/core/scholium"
	"github.com/scholium-app/scholium/core/session"
	"github.com/scholium-app/scholium/core/user"
	appfs "github.com/scholium-app/scholium/fs"
	emailsvc "github.com/scholium-app/scholium/services/email"
	logsvc "github.com/scholium-app/scholium/services/logger"
	dummydb "github.com/scholium-app/scholium/storage/database/dummy"
)

var errNotAuthenticated = httpErr{Error: "user not authenticated"}

type fixtures struct {
	t    *testing.T
	conf *core.Config

	usrSvc      user.Service
	sessSvc     session.Service
	scholiumSvc scholium.Service
	homeworkSvc homework.Service
	adminSvc    admin.Service
}

func setup(t *testing.T) (Server, *fixtures) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(dummydb.NewUserRepository(db), mailSvc, conf)
	sessSvc := session.NewService(dummydb.NewSessionRepository(db), conf)
	scholiumSvc := scholium.NewService(dummydb.NewScholiumRepository(db))
	homeworkSvc := homework.NewService(dummydb.NewHomeworkRepository(db), scholiumSvc)
	adminSvc := admin.NewService(dummydb.NewAdminRepository(db))

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	homework.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	fx := &fixtures{
		t:           t,
		conf:        conf,
		usrSvc:      usrSvc,
		sessSvc:     sessSvc,
		scholiumSvc: scholiumSvc,
		homeworkSvc: homeworkSvc,
		adminSvc:    adminSvc,
	}
	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		SessionSvc:     sessSvc,
		ScholiumSvc:    scholiumSvc,
		HomeworkSvc:    homeworkSvc,
		AdminSvc:       adminSvc,
	})
	return app, fx
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (fx *fixtures) createUser(name, email, pwd string, roles ...string) user.User {
	fx.t.Helper()
	nu := user.NewUser{Email: email, Name: name, Password: pwd}
	if len(roles) > 0 {
		nu.Role = roles[0]
	}
	usr, err := fx.usrSvc.Create(context.Background(), nu)
	if err != nil {
		fx.t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func (fx *fixtures) createScholium(host user.User, name string) scholium.Scholium {
	fx.t.Helper()
	sch, err := fx.scholiumSvc.Create(context.Background(), host.ID, scholium.NewScholium{Name: name})
	if err != nil {
		fx.t.Fatalf("createScholium(): %v", err)
	}
	return sch
}

func (fx *fixtures) join(usr user.User, sch scholium.Scholium) {
	fx.t.Helper()
	if _, err := fx.scholiumSvc.Join(context.Background(), usr.ID, sch.AccessCode); err != nil {
		fx.t.Fatalf("join(): %v", err)
	}
}

func (fx *fixtures) getToken(usr user.User) string {
	fx.t.Helper()
	sess, err := fx.sessSvc.Create(context.Background(), usr.ID)
	if err != nil {
		fx.t.Fatalf("getToken(): %v", err)
	}
	return sess.Token
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

// checkCodeAndData compares status code and, when wantData is set, the JSON body.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
