package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/communitylink/membership-api/internal/auth"
	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/notify"
	"github.com/communitylink/membership-api/internal/registration"
	"github.com/communitylink/membership-api/internal/router"
	"github.com/communitylink/membership-api/internal/shared/database"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	engine    *gin.Engine
	processor *testutil.MockProcessor
	notifier  *testutil.RecordingNotifier
}

func setupApp(t *testing.T) *app {
	t.Helper()

	db := &database.DB{DB: testutil.NewTestDB(t)}
	provider := testutil.NewLocalIdentity(db.DB)
	_, err := provider.EnsureAdmin(context.Background(), "admin@example.org", "adminpass1")
	require.NoError(t, err)

	a := &app{
		engine:    testutil.SetupTestRouter(),
		processor: testutil.NewMockProcessor(),
		notifier:  testutil.NewRecordingNotifier(),
	}
	sweeper, err := router.Setup(a.engine, testutil.NewTestConfig(), db, router.Dependencies{
		Processor: a.processor,
		Identity:  provider,
		Notifier:  a.notifier,
	})
	require.NoError(t, err)
	require.NotNil(t, sweeper)
	return a
}

func (a *app) do(t *testing.T, method, url, token string, body interface{}) (int, []byte) {
	t.Helper()
	recorder := testutil.ExecuteRequest(t, a.engine, testutil.TestRequest{
		Method: method,
		URL:    url,
		Body:   body,
		Token:  token,
	})
	return recorder.Code, recorder.Body.Bytes()
}

func (a *app) login(t *testing.T, email, password string) string {
	t.Helper()
	recorder := testutil.ExecuteRequest(t, a.engine, testutil.TestRequest{
		Method: http.MethodPost,
		URL:    "/api/v1/auth/login",
		Body:   auth.LoginRequest{Email: email, Password: password},
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp auth.LoginResponse
	testutil.ParseResponse(t, recorder, &resp)
	return resp.AccessToken
}

func TestMembershipJourney(t *testing.T) {
	a := setupApp(t)

	// Given: A general single application paid upfront
	recorder := testutil.ExecuteRequest(t, a.engine, testutil.TestRequest{
		Method: http.MethodPost,
		URL:    "/api/v1/registrations",
		Body: registration.RegistrationRequest{
			FirstName:           "Jane",
			LastName:            "Doe",
			Email:               "jane@example.com",
			PhoneNumber:         "0412 345 678",
			DateOfBirth:         "1985-06-30",
			Address:             "1 Main St, Springfield",
			MembershipCategory:  model.CategoryGeneral,
			MembershipType:      model.TypeSingle,
			PaymentType:         model.PaymentUpfront,
			DeclarationAccepted: true,
		},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var intent registration.CreateIntentResponse
	testutil.ParseResponse(t, recorder, &intent)

	// When: The payment succeeds and the client completes
	a.processor.Succeed(intent.PaymentReference)
	status, body := a.do(t, http.MethodPost, "/api/v1/registrations/complete", "", registration.CompleteRequest{PaymentReference: intent.PaymentReference})
	require.Equal(t, http.StatusCreated, status, string(body))
	var completed registration.CompleteResponse
	require.NoError(t, json.Unmarshal(body, &completed))
	assert.Equal(t, model.StatusPendingApproval, completed.Status)

	// Then: The applicant has no portal access yet
	status, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: "jane@example.com", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, status)

	// When: An admin approves with an initial password
	adminToken := a.login(t, "admin@example.org", "adminpass1")
	status, body = a.do(t, http.MethodPost, "/api/v1/admin/members/"+completed.ReferenceNo+"/approve", adminToken, member.ApproveRequest{Password: "password123"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 1, a.notifier.Count(notify.EventApproved))

	// Then: The member can log in and see their profile
	memberToken := a.login(t, "jane@example.com", "password123")
	status, body = a.do(t, http.MethodGet, "/api/v1/members/me", memberToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var profile member.ProfileResponse
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, completed.ReferenceNo, profile.ReferenceNo)

	// And the member token does not open admin routes
	status, _ = a.do(t, http.MethodGet, "/api/v1/admin/members/"+completed.ReferenceNo, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// When: The admin suspends the member
	status, _ = a.do(t, http.MethodPost, "/api/v1/admin/members/"+completed.ReferenceNo+"/suspend", adminToken, member.ReasonRequest{Reason: "conduct review"})
	require.Equal(t, http.StatusOK, status)

	// Then: Login is refused
	status, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: "jane@example.com", Password: "password123"})
	assert.Equal(t, http.StatusForbidden, status)

	// And the transitions are visible on /metrics
	status, body = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	metrics := string(body)
	assert.True(t, strings.Contains(metrics, `membership_transitions_total{outcome="ok",transition="approve"}`), metrics)
	assert.Contains(t, metrics, fmt.Sprintf(`transition="%s"`, member.TransitionSuspend))
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status, string(body))
}
