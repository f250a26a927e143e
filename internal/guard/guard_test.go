package guard

import (
	"testing"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	user := &session.User{UID: "u1"}

	tests := []struct {
		name  string
		state State
		req   Requirement
		want  Decision
	}{
		{"Session loading", State{SessionLoading: true}, RequireAdmin, Decision{Kind: Pending}},
		{"Role loading with user", State{User: user, RoleLoading: true}, RequireAdmin, Decision{Kind: Pending}},
		{"Role loading without user", State{RoleLoading: true}, RequireSession, Decision{Kind: Pending}},
		{"No user", State{}, RequireSession, Decision{Kind: RedirectLogin, Landing: LoginRoute}},
		{"No user on admin route", State{Role: model.RoleAdmin}, RequireAdmin, Decision{Kind: RedirectLogin, Landing: LoginRoute}},
		{"Student on admin route", State{User: user, Role: model.RoleStudent}, RequireAdmin, Decision{Kind: RedirectHome, Landing: StudentLanding}},
		{"Admin on admin route", State{User: user, Role: model.RoleAdmin}, RequireAdmin, Decision{Kind: Allow}},
		{"Admin on student route", State{User: user, Role: model.RoleAdmin}, RequireStudent, Decision{Kind: RedirectHome, Landing: AdminLanding}},
		{"Student on student route", State{User: user, Role: model.RoleStudent}, RequireStudent, Decision{Kind: Allow}},
		{"Any user on session route", State{User: user, Role: model.RoleStudent}, RequireSession, Decision{Kind: Allow}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.state, tc.req))
		})
	}
}

func TestLanding(t *testing.T) {
	assert.Equal(t, AdminLanding, Landing(model.RoleAdmin))
	assert.Equal(t, StudentLanding, Landing(model.RoleStudent))
	assert.Equal(t, StudentLanding, Landing(""))
}
