package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"testing"

	echoapi "github.com/scholium-app/scholium/apps/api/echo"
	"github.com/scholium-app/scholium/core/scholium"
)

var accessCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

func Test_scholiumApi_create(t *testing.T) {
	app, fx := setup(t)

	usr := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	token := fx.getToken(usr)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthenticated)},
		{
			name: "required fields", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "created", token: token, wantCode: http.StatusCreated,
			body: marchallObj(t, scholium.NewScholium{Name: "Algebra Club"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/scholiums"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData scholium.Scholium
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.OwnerID != usr.ID {
					t.Errorf("failed! owner = %d; want %d", respData.OwnerID, usr.ID)
				}
				if !accessCodeRe.MatchString(respData.AccessCode) {
					t.Errorf("failed! access code = %q", respData.AccessCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_scholiumApi_join(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	joiner := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	joinerToken := fx.getToken(joiner)

	sch := fx.createScholium(host, "Algebra Club")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthenticated)},
		{
			name: "unknown code", token: joinerToken, wantCode: http.StatusNotFound,
			body:     marchallObj(t, scholium.JoinScholium{AccessCode: "NOPE1234"}),
			wantData: marchallObj(t, httpErr{Error: "scholium not found"}),
		},
		{
			name: "joined", token: joinerToken, wantCode: http.StatusOK,
			body:     marchallObj(t, scholium.JoinScholium{AccessCode: sch.AccessCode}),
			wantData: marchallObj(t, sch),
		},
		{
			name: "joining twice", token: joinerToken, wantCode: http.StatusConflict,
			body:     marchallObj(t, scholium.JoinScholium{AccessCode: sch.AccessCode}),
			wantData: marchallObj(t, httpErr{Error: "already a member of this scholium"}),
		},
		{
			name: "host rejoining own scholium", token: fx.getToken(host), wantCode: http.StatusConflict,
			body:     marchallObj(t, scholium.JoinScholium{AccessCode: sch.AccessCode}),
			wantData: marchallObj(t, httpErr{Error: "already a member of this scholium"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/scholiums/join"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_scholiumApi_queryAndRetrieve(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	outsider := fx.createUser("Alan", "alan@test.cd", "s3cr3t!")

	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	empty := marchallList(t, []interface{}{}...)
	notFound := marchallObj(t, httpErr{Error: "scholium not found"})

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/scholiums", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthenticated)},
		{
			name: "no memberships is an empty list", method: http.MethodGet, path: "/v1/scholiums",
			token: fx.getToken(outsider), wantCode: http.StatusOK, wantData: empty,
		},
		{
			name: "member list", method: http.MethodGet, path: "/v1/scholiums",
			token: fx.getToken(member), wantCode: http.StatusOK, wantData: marchallList(t, sch),
		},
		{
			name: "retrieve as member", method: http.MethodGet, path: fmt.Sprintf("/v1/scholiums/%d", sch.ID),
			token: fx.getToken(member), wantCode: http.StatusOK,
			wantData: marchallObj(t, scholium.Details{Scholium: sch, IsHost: false, MemberCount: 2}),
		},
		{
			name: "retrieve as host", method: http.MethodGet, path: fmt.Sprintf("/v1/scholiums/%d", sch.ID),
			token: fx.getToken(host), wantCode: http.StatusOK,
			wantData: marchallObj(t, scholium.Details{Scholium: sch, IsHost: true, MemberCount: 2}),
		},
		{
			name: "retrieve as outsider", method: http.MethodGet, path: fmt.Sprintf("/v1/scholiums/%d", sch.ID),
			token: fx.getToken(outsider), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "garbage id", method: http.MethodGet, path: "/v1/scholiums/lol",
			token: fx.getToken(member), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_scholiumApi_renewCode(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	path := fmt.Sprintf("/v1/scholiums/%d/renew-code", sch.ID)

	t.Run("member is refused", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, fx.getToken(member))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the host may do this"}),
		}, rec)
	})

	t.Run("host renews", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, fx.getToken(host))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData echoapi.AccessCodeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !accessCodeRe.MatchString(respData.AccessCode) {
			t.Errorf("failed! access code = %q", respData.AccessCode)
		}
		if respData.AccessCode == sch.AccessCode {
			t.Error("failed! code did not change")
		}

		// old code is dead
		req, rec = newAuthRequest(
			http.MethodPost, "/v1/scholiums/join", fx.getToken(fx.createUser("Alan", "alan@test.cd", "s3cr3t!")),
			marchallObj(t, scholium.JoinScholium{AccessCode: sch.AccessCode}),
		)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_scholiumApi_members(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	outsider := fx.createUser("Alan", "alan@test.cd", "s3cr3t!")
	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	path := fmt.Sprintf("/v1/scholiums/%d/members", sch.ID)

	t.Run("outsider is refused", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, fx.getToken(outsider))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "scholium not found"}),
		}, rec)
	})

	t.Run("member list with user fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, fx.getToken(member))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData []scholium.Member
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(respData) != 2 {
			t.Fatalf("failed! len = %d; want 2", len(respData))
		}
		// host joined first
		if !respData[0].IsHost || respData[0].UserName != "Ada" || respData[0].UserEmail != "ada@test.cd" {
			t.Errorf("failed! first member = %+v", respData[0])
		}
		if respData[1].IsHost || respData[1].UserName != "Grace" {
			t.Errorf("failed! second member = %+v", respData[1])
		}
	})
}

func Test_scholiumApi_updatePermissions(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	path := fmt.Sprintf("/v1/scholiums/%d/members/%d/permissions", sch.ID, member.ID)
	grant := marchallObj(t, scholium.UpdatePermissions{CanAddHomework: true, CanCreateSubject: true})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthenticated)},
		{
			name: "member cannot grant", token: fx.getToken(member), body: grant,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only the host may do this"}),
		},
		{name: "host grants", token: fx.getToken(host), body: grant, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_scholiumApi_removeMember(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	path := func(userID int) string { return fmt.Sprintf("/v1/scholiums/%d/members/%d", sch.ID, userID) }

	tests := []httpTest{
		{
			name: "member cannot remove", token: fx.getToken(member), path: path(member.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only the host may do this"}),
		},
		{
			name: "host cannot be removed", token: fx.getToken(host), path: path(host.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "hosts cannot be removed"}),
		},
		{name: "removed", token: fx.getToken(host), path: path(member.ID), wantCode: http.StatusNoContent},
		{
			name: "already gone", token: fx.getToken(host), path: path(member.ID),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "scholium not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_scholiumApi_destroy(t *testing.T) {
	app, fx := setup(t)

	host := fx.createUser("Ada", "ada@test.cd", "s3cr3t!")
	member := fx.createUser("Grace", "grace@test.cd", "s3cr3t!")
	sch := fx.createScholium(host, "Algebra Club")
	fx.join(member, sch)

	path := fmt.Sprintf("/v1/scholiums/%d", sch.ID)

	t.Run("member cannot destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, fx.getToken(member))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the host may do this"}),
		}, rec)
	})

	t.Run("host destroys", func(t *testing.T) {
		memberToken := fx.getToken(member)

		req, rec := newAuthRequest(http.MethodDelete, path, fx.getToken(host))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		// gone for everyone
		req, rec = newAuthRequest(http.MethodGet, path, memberToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})
}
