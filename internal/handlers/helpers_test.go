package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/middleware"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSlack struct{ mock.Mock }

func (m *mockSlack) Send(ctx context.Context, webhookURL string, payload services.SlackWebhookRequest) error {
	return m.Called(webhookURL).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg services.EmailMessage) error {
	return m.Called(msg.ToEmail, msg.Subject).Error(0)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(prompt)
	return args.String(0), args.Error(1)
}

// GenerateJSON decodes the canned reply into out like the real client does.
func (m *mockGenerator) GenerateJSON(ctx context.Context, system, prompt string, out any) error {
	args := m.Called(system)
	if err := args.Error(1); err != nil {
		return err
	}
	return services.DecodeModelJSON(args.String(0), out)
}

type mockTrigger struct{ mock.Mock }

func (m *mockTrigger) Trigger(ctx context.Context, req services.WorkflowRequest) (string, error) {
	args := m.Called(req.Workflow)
	return args.String(0), args.Error(1)
}

func (m *mockTrigger) Known(workflow string) bool {
	return workflow == config.WorkflowCreatorApplication || workflow == config.WorkflowScriptAssigned
}

// setupHandlers gives each test a fresh database and default dependencies.
func setupHandlers(t *testing.T, d Dependencies) {
	t.Helper()
	db.SetupTestDatabase(t)

	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Config == nil {
		d.Config = &config.Config{}
		d.Config.Server.PublicURL = "https://app.powerbrief.test"
	}
	Configure(d)
	t.Cleanup(func() { Configure(Dependencies{}) })
}

func seedUser(t *testing.T, name string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)
	return user
}

func seedBrand(t *testing.T, owner models.User, mutate func(*models.Brand)) models.Brand {
	t.Helper()

	brand := models.Brand{OwnerID: owner.ID, Name: "Glow"}
	if mutate != nil {
		mutate(&brand)
	}
	require.NoError(t, db.DB.Create(&brand).Error)
	return brand
}

func shareBrand(t *testing.T, brand models.Brand, user models.User, role string) {
	t.Helper()
	require.NoError(t, db.DB.Create(&models.BrandShare{BrandID: brand.ID, UserID: user.ID, Role: role}).Error)
}

func seedCreator(t *testing.T, brand models.Brand, mutate func(*models.Creator)) models.Creator {
	t.Helper()

	creator := models.Creator{
		BrandID:        brand.ID,
		Name:           "Casey",
		Email:          uuid.NewString() + "@creators.test",
		Status:         types.CreatorStatusNewSubmission,
		ContractStatus: types.ContractStatusNotSigned,
	}
	if mutate != nil {
		mutate(&creator)
	}
	require.NoError(t, db.DB.Create(&creator).Error)
	return creator
}

// newEngine serves handlers as user, skipping the session middleware. A zero
// user leaves the request anonymous.
func newEngine(user models.User) *gin.Engine {
	r := gin.New()
	if user.ID != "" {
		r.Use(func(ctx *gin.Context) {
			ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{ID: user.ID, Name: user.Name, Email: user.Email})
			ctx.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
